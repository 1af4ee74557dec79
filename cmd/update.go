package main

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/internal/store"
)

// updateCompany applies fn to the stored company named name, creating the
// record when it does not exist yet, and saves the result.
func updateCompany(ctx context.Context, st store.Store, name string, fn func(c *model.Company)) (model.Company, error) {
	c := model.NewCompany(name)
	stored, err := st.GetCompany(ctx, c.ID)
	switch {
	case err == nil:
		c = *stored
	case !errors.Is(err, store.ErrNotFound):
		return c, eris.Wrapf(err, "load company %s", c.ID)
	}
	fn(&c)
	if err := st.SaveCompany(ctx, c); err != nil {
		return c, eris.Wrapf(err, "save company %s", c.ID)
	}
	return c, nil
}

// dismissJob hides one job of a stored company and saves the company.
// An unknown company or job id is store.ErrNotFound.
func dismissJob(ctx context.Context, st store.Store, companyID, jobID, reason string, now time.Time) (*model.Company, error) {
	c, err := st.GetCompany(ctx, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "load company %s", companyID)
	}
	found := false
	for i := range c.Jobs {
		if c.Jobs[i].ID == jobID {
			c.Jobs[i].Dismiss(reason)
			found = true
			break
		}
	}
	if !found {
		return nil, eris.Wrapf(store.ErrNotFound, "job %s of %s", jobID, companyID)
	}
	c.UpdatedAt = now
	if err := st.SaveCompany(ctx, *c); err != nil {
		return nil, eris.Wrapf(err, "save company %s", companyID)
	}
	return c, nil
}

// saveNewCompanies saves the companies whose ids are not stored yet and
// returns how many were added.
func saveNewCompanies(ctx context.Context, st store.Store, companies []model.Company) (int, error) {
	var fresh []model.Company
	for _, c := range companies {
		_, err := st.GetCompany(ctx, c.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fresh = append(fresh, c)
		case err != nil:
			return 0, eris.Wrapf(err, "load company %s", c.ID)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	return st.SaveCompanies(ctx, fresh)
}

// allCompanies pages through every stored company.
func allCompanies(ctx context.Context, st store.Store) ([]model.Company, error) {
	var out []model.Company
	for offset := 0; ; offset += store.DefaultLimit {
		page, err := st.ListCompanies(ctx, store.CompanyFilter{Limit: store.DefaultLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < store.DefaultLimit {
			return out, nil
		}
	}
}
