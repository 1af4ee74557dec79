package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/stablecoin-intel/pkg/notion"
)

type mockNotion struct {
	mock.Mock
}

func (m *mockNotion) QueryCompanies(ctx context.Context) ([]notion.CompanyPage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notion.CompanyPage), args.Error(1)
}

func (m *mockNotion) UpsertCompanyPage(ctx context.Context, pageID string, props notionapi.Properties) (string, error) {
	args := m.Called(ctx, pageID, props)
	return args.String(0), args.Error(1)
}
