package domain_test

import (
	"testing"

	"sitescope/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestProjectIsOwnedBy(t *testing.T) {
	owner := domain.UserID(uuid.New())
	other := domain.UserID(uuid.New())
	project := domain.Project{ID: domain.ProjectID(uuid.New()), OwnerID: owner}

	require.True(t, project.IsOwnedBy(owner))
	require.False(t, project.IsOwnedBy(other))
}

func TestProjectCanStartCrawl(t *testing.T) {
	activeCrawl := domain.CrawlID(uuid.New())

	cases := []struct {
		name    string
		active  *domain.CrawlID
		credits int
		want    bool
	}{
		{"idle project with credit", nil, 1, true},
		{"idle project without credit", nil, 0, false},
		{"idle project negative credit", nil, -3, false},
		{"active crawl blocks even with credit", &activeCrawl, 10, false},
		{"active crawl and no credit", &activeCrawl, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			project := domain.Project{ActiveCrawlID: tc.active}
			require.Equal(t, tc.want, project.CanStartCrawl(tc.credits))
		})
	}
}
