package export

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/model"
	"github.com/sells-group/stablecoin-intel/pkg/notion"
)

// Notion property names of the directory database.
const (
	propName        = notion.DefaultTitleProperty
	propCategories  = "Categories"
	propFocus       = "Focus"
	propIndustry    = "Industry"
	propCountry     = "Country"
	propRegion      = "Region"
	propWebsite     = "Website"
	propTotalRaised = "Total Raised"
	propDescription = "Description"
	propUpdated     = "Updated"
)

// Notion caps a rich text segment at 2000 characters.
const maxRichText = 2000

// NotionResult counts the pages touched by PublishNotion.
type NotionResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// PublishNotion upserts one page per company into the directory database,
// matching existing pages by title. A failed page is logged and counted;
// only a failed index query or a cancelled context aborts the run.
func PublishNotion(ctx context.Context, client notion.Client, companies []model.Company) (NotionResult, error) {
	var res NotionResult

	pages, err := client.QueryCompanies(ctx)
	if err != nil {
		return res, eris.Wrap(err, "export: index notion database")
	}
	existing := notion.IndexByName(pages)

	for _, c := range companies {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "export: publish notion")
		}
		pageID := existing[c.Name]
		if _, err := client.UpsertCompanyPage(ctx, pageID, companyProperties(c)); err != nil {
			res.Failed++
			zap.L().Warn("export: notion page failed",
				zap.String("company", c.Name),
				zap.Error(err),
			)
			continue
		}
		if pageID == "" {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func companyProperties(c model.Company) notionapi.Properties {
	props := notionapi.Properties{
		propName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: notion.Text(c.Name),
		},
		propDescription: richText(c.Description),
		propIndustry:    richText(c.Industry),
		propCountry:     richText(c.Country),
		propRegion:      richText(c.Region),
	}

	opts := make([]notionapi.Option, 0, len(c.Categories))
	for _, cat := range c.Categories {
		opts = append(opts, notionapi.Option{Name: string(cat)})
	}
	props[propCategories] = notionapi.MultiSelectProperty{
		Type:        notionapi.PropertyTypeMultiSelect,
		MultiSelect: opts,
	}

	if c.Focus != "" {
		props[propFocus] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: string(c.Focus)},
		}
	}
	if c.Website != "" {
		props[propWebsite] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  c.Website,
		}
	}
	if c.Funding != nil && c.Funding.TotalRaised != "" {
		props[propTotalRaised] = richText(c.Funding.TotalRaised)
	}
	if !c.UpdatedAt.IsZero() {
		updated := notionapi.Date(c.UpdatedAt)
		props[propUpdated] = notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &updated},
		}
	}
	return props
}

func richText(s string) notionapi.RichTextProperty {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxRichText {
		s = string(r[:maxRichText])
	}
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: notion.Text(s),
	}
}
