package service

import (
	"context"
	"testing"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
)

type testEnv struct {
	users      *MockUserRepository
	tokens     *MockRefreshTokenRepository
	groups     *MockGroupRepository
	movies     *MockMovieRepository
	ledgerRepo *MockGroupMovieRepository
	ratingRepo *MockRatingRepository
	watchRepo  *MockWatchlistRepository
	inviteRepo *MockInviteCodeRepository
	feed       *MockActivityRepository
	favorites  *MockFavoriteRepository
	provider   *fakeProvider
	notifier   *recordingNotifier

	activity  *ActivityService
	catalog   *CatalogService
	ratings   *RatingService
	ledger    *LedgerService
	watchlist *WatchlistService
	invites   *InviteService
	groupSvc  *GroupService
	userSvc   *UserService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		users:      NewMockUserRepository(),
		tokens:     NewMockRefreshTokenRepository(),
		groups:     NewMockGroupRepository(),
		movies:     NewMockMovieRepository(),
		inviteRepo: NewMockInviteCodeRepository(),
		feed:       NewMockActivityRepository(),
		provider:   newFakeProvider(),
		notifier:   &recordingNotifier{},
	}
	e.groups.users = e.users
	e.ledgerRepo = NewMockGroupMovieRepository(e.movies)
	e.ledgerRepo.users = e.users
	e.ratingRepo = NewMockRatingRepository(e.movies)
	e.watchRepo = NewMockWatchlistRepository(e.movies)
	e.favorites = NewMockFavoriteRepository(e.movies)

	e.activity = NewActivityService(e.feed, e.groups, e.notifier)
	e.catalog = NewCatalogService(e.movies, e.provider, nil)
	e.ratings = NewRatingService(e.ratingRepo, e.ledgerRepo, e.groups, e.activity)
	e.ledger = NewLedgerService(e.ledgerRepo, e.ratingRepo, e.groups, e.catalog, e.activity)
	e.watchlist = NewWatchlistService(e.watchRepo, e.groups, e.catalog, e.ledger, e.activity)
	e.invites = NewInviteService(e.inviteRepo, e.groups, e.users, e.activity)
	e.groupSvc = NewGroupService(e.groups, e.ledgerRepo, e.activity, nil)
	e.userSvc = NewUserService(e.users, e.ratingRepo, e.favorites, e.catalog)

	e.provider.add(550, "Fight Club", "1999-10-15", "Drama", "Thriller")
	e.provider.add(18079, "Nueve reinas", "2000-08-31", "Crime", "Drama", "Thriller")
	e.provider.add(603, "The Matrix", "1999-03-30", "Action", "Science Fiction")
	return e
}

func (e *testEnv) addUser(id uint, name string) *models.User {
	u := &models.User{ID: id, Email: name + "@example.com", DisplayName: name}
	_ = e.users.Create(context.Background(), u)
	return u
}

// newGroup creates a group owned by ownerID with the given plain members.
func (e *testEnv) newGroup(t *testing.T, ownerID uint, memberIDs ...uint) uint {
	t.Helper()
	ctx := context.Background()
	g := &models.Group{Name: "Cine club", OwnerID: ownerID}
	if err := e.groups.CreateWithOwner(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, id := range memberIDs {
		if _, err := e.groups.AddMember(ctx, g.ID, id, models.RoleMember); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	return g.ID
}

// watch adds tmdbID to the group's ledger and returns the local movie id.
func (e *testEnv) watch(t *testing.T, userID, groupID uint, tmdbID int) uint {
	t.Helper()
	entry, err := e.ledger.AddMovie(context.Background(), userID, groupID, tmdbID, AddMovieInput{})
	if err != nil {
		t.Fatalf("AddMovie(%d): %v", tmdbID, err)
	}
	return entry.Movie.ID
}
