package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/tmdb"
	"gorm.io/gorm"
)

// Map-backed mocks. They mirror the natural-key constraints of the schema by
// returning gorm.ErrDuplicatedKey and gorm.ErrRecordNotFound like the real
// repositories do with TranslateError enabled.

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

// MockRefreshTokenRepository implements repository.RefreshTokenRepositoryInterface.
type MockRefreshTokenRepository struct {
	tokens map[string]*models.RefreshToken
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (m *MockRefreshTokenRepository) Create(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *MockRefreshTokenRepository) FindValidByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	token, ok := m.tokens[hash]
	if !ok || token.IsRevoked() || token.IsExpired(time.Now()) {
		return nil, gorm.ErrRecordNotFound
	}
	return token, nil
}

func (m *MockRefreshTokenRepository) RevokeByHash(_ context.Context, hash string) error {
	if token, ok := m.tokens[hash]; ok {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

// MockGroupRepository implements repository.GroupRepositoryInterface.
type MockGroupRepository struct {
	groups      map[uint]*models.Group
	memberships map[uint]map[uint]models.GroupRole
	users       *MockUserRepository
	nextID      uint
	deleted     []uint
	createErr   error
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:      make(map[uint]*models.Group),
		memberships: make(map[uint]map[uint]models.GroupRole),
		nextID:      1,
	}
}

func (m *MockGroupRepository) CreateWithOwner(_ context.Context, group *models.Group) error {
	if m.createErr != nil {
		return m.createErr
	}
	if group.ID == 0 {
		group.ID = m.nextID
		m.nextID++
	}
	m.groups[group.ID] = group
	m.memberships[group.ID] = map[uint]models.GroupRole{group.OwnerID: models.RoleOwner}
	return nil
}

func (m *MockGroupRepository) FindByID(_ context.Context, id uint) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) Update(_ context.Context, group *models.Group) error {
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *MockGroupRepository) Delete(_ context.Context, id uint) error {
	delete(m.groups, id)
	delete(m.memberships, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockGroupRepository) AddMember(_ context.Context, groupID, userID uint, role models.GroupRole) (bool, error) {
	if _, ok := m.memberships[groupID]; !ok {
		m.memberships[groupID] = make(map[uint]models.GroupRole)
	}
	if _, exists := m.memberships[groupID][userID]; exists {
		return false, nil
	}
	m.memberships[groupID][userID] = role
	return true, nil
}

func (m *MockGroupRepository) RemoveMember(_ context.Context, groupID, userID uint) error {
	if gm, ok := m.memberships[groupID]; ok {
		delete(gm, userID)
	}
	return nil
}

func (m *MockGroupRepository) GetMembers(_ context.Context, groupID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for uid, role := range m.memberships[groupID] {
		member := models.GroupMember{GroupID: groupID, UserID: uid, Role: role, User: models.User{ID: uid}}
		if m.users != nil {
			if u, err := m.users.FindByID(context.Background(), uid); err == nil {
				member.User = *u
			}
		}
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MockGroupRepository) GetMemberIDs(_ context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	for uid := range m.memberships[groupID] {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockGroupRepository) CountMembers(_ context.Context, groupID uint) (int64, error) {
	return int64(len(m.memberships[groupID])), nil
}

func (m *MockGroupRepository) GetMemberRole(_ context.Context, groupID, userID uint) (models.GroupRole, error) {
	if role, ok := m.memberships[groupID][userID]; ok {
		return role, nil
	}
	return "", gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) GetUserGroups(_ context.Context, userID uint) ([]models.GroupSummary, error) {
	var out []models.GroupSummary
	for gid, gm := range m.memberships {
		role, ok := gm[userID]
		if !ok {
			continue
		}
		if g, ok := m.groups[gid]; ok {
			out = append(out, models.GroupSummary{Group: *g, Role: role, MemberCount: int64(len(gm))})
		}
	}
	return out, nil
}

func (m *MockGroupRepository) GetUserGroupIDs(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for gid, gm := range m.memberships {
		if _, ok := gm[userID]; ok {
			ids = append(ids, gid)
		}
	}
	return ids, nil
}

// MockMovieRepository implements repository.MovieRepositoryInterface.
type MockMovieRepository struct {
	movies  map[uint]*models.Movie
	nextID  uint
	creates int
}

func NewMockMovieRepository() *MockMovieRepository {
	return &MockMovieRepository{movies: make(map[uint]*models.Movie), nextID: 1}
}

func (m *MockMovieRepository) FindByTMDBID(_ context.Context, tmdbID int) (*models.Movie, error) {
	for _, mv := range m.movies {
		if mv.TMDBID == tmdbID {
			cp := *mv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMovieRepository) FindByID(_ context.Context, id uint) (*models.Movie, error) {
	if mv, ok := m.movies[id]; ok {
		cp := *mv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockMovieRepository) CreateIfAbsent(ctx context.Context, movie *models.Movie) error {
	m.creates++
	if _, err := m.FindByTMDBID(ctx, movie.TMDBID); err == nil {
		return nil
	}
	movie.ID = m.nextID
	m.nextID++
	cp := *movie
	m.movies[movie.ID] = &cp
	return nil
}

// seed stores a movie directly, bypassing the provider.
func (m *MockMovieRepository) seed(tmdbID int, title string, genres ...string) *models.Movie {
	mv := &models.Movie{ID: m.nextID, TMDBID: tmdbID, Title: title, Genres: genres}
	m.nextID++
	m.movies[mv.ID] = mv
	cp := *mv
	return &cp
}

func (m *MockMovieRepository) count() int {
	return len(m.movies)
}

// MockGroupMovieRepository implements repository.GroupMovieRepositoryInterface.
type MockGroupMovieRepository struct {
	rows      map[uint]*models.GroupMovie
	attendees map[uint][]uint
	movies    *MockMovieRepository
	users     *MockUserRepository
	nextID    uint
	clock     time.Time
}

func NewMockGroupMovieRepository(movies *MockMovieRepository) *MockGroupMovieRepository {
	return &MockGroupMovieRepository{
		rows:      make(map[uint]*models.GroupMovie),
		attendees: make(map[uint][]uint),
		movies:    movies,
		nextID:    1,
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockGroupMovieRepository) Create(_ context.Context, gm *models.GroupMovie) error {
	for _, row := range m.rows {
		if row.GroupID == gm.GroupID && row.MovieID == gm.MovieID {
			return gorm.ErrDuplicatedKey
		}
	}
	gm.ID = m.nextID
	m.nextID++
	if gm.CreatedAt.IsZero() {
		m.clock = m.clock.Add(time.Minute)
		gm.CreatedAt = m.clock
	}
	cp := *gm
	m.rows[gm.ID] = &cp
	return nil
}

func (m *MockGroupMovieRepository) withMovie(row *models.GroupMovie) models.GroupMovie {
	cp := *row
	if m.movies != nil {
		if mv, err := m.movies.FindByID(context.Background(), row.MovieID); err == nil {
			cp.Movie = *mv
		}
	}
	return cp
}

func (m *MockGroupMovieRepository) Find(_ context.Context, groupID, movieID uint) (*models.GroupMovie, error) {
	for _, row := range m.rows {
		if row.GroupID == groupID && row.MovieID == movieID {
			cp := m.withMovie(row)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupMovieRepository) ListByGroup(_ context.Context, groupID uint) ([]models.GroupMovie, error) {
	var out []models.GroupMovie
	for _, row := range m.rows {
		if row.GroupID == groupID {
			out = append(out, m.withMovie(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockGroupMovieRepository) Delete(_ context.Context, id uint) error {
	delete(m.rows, id)
	delete(m.attendees, id)
	return nil
}

func (m *MockGroupMovieRepository) AddAttendees(_ context.Context, groupMovieID uint, userIDs []uint) error {
	m.attendees[groupMovieID] = append(m.attendees[groupMovieID], userIDs...)
	return nil
}

func (m *MockGroupMovieRepository) ListAttendees(_ context.Context, groupMovieID uint) ([]models.User, error) {
	var out []models.User
	for _, id := range m.attendees[groupMovieID] {
		u := models.User{ID: id}
		if m.users != nil {
			if found, err := m.users.FindByID(context.Background(), id); err == nil {
				u = *found
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *MockGroupMovieRepository) CountByGroup(_ context.Context, groupID uint) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

type ratingKey struct{ group, movie, user uint }

// MockRatingRepository implements repository.RatingRepositoryInterface.
type MockRatingRepository struct {
	rows   map[ratingKey]*models.Rating
	movies *MockMovieRepository
	nextID uint
}

func NewMockRatingRepository(movies *MockMovieRepository) *MockRatingRepository {
	return &MockRatingRepository{rows: make(map[ratingKey]*models.Rating), movies: movies, nextID: 1}
}

func (m *MockRatingRepository) Upsert(_ context.Context, rating *models.Rating) error {
	key := ratingKey{rating.GroupID, rating.MovieID, rating.UserID}
	now := time.Now()
	if existing, ok := m.rows[key]; ok {
		existing.Score = rating.Score
		existing.Comment = rating.Comment
		existing.UpdatedAt = now
		rating.ID = existing.ID
		return nil
	}
	rating.ID = m.nextID
	m.nextID++
	rating.CreatedAt, rating.UpdatedAt = now, now
	cp := *rating
	m.rows[key] = &cp
	return nil
}

func (m *MockRatingRepository) Find(_ context.Context, groupID, movieID, userID uint) (*models.Rating, error) {
	if r, ok := m.rows[ratingKey{groupID, movieID, userID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockRatingRepository) filter(keep func(*models.Rating) bool) []models.Rating {
	var out []models.Rating
	for _, r := range m.rows {
		if keep(r) {
			cp := *r
			if m.movies != nil {
				if mv, err := m.movies.FindByID(context.Background(), r.MovieID); err == nil {
					cp.Movie = *mv
				}
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockRatingRepository) ListForMovie(_ context.Context, groupID, movieID uint) ([]models.Rating, error) {
	return m.filter(func(r *models.Rating) bool { return r.GroupID == groupID && r.MovieID == movieID }), nil
}

func (m *MockRatingRepository) ListForGroup(_ context.Context, groupID uint) ([]models.Rating, error) {
	return m.filter(func(r *models.Rating) bool { return r.GroupID == groupID }), nil
}

func (m *MockRatingRepository) ListByUser(_ context.Context, userID uint) ([]models.Rating, error) {
	return m.filter(func(r *models.Rating) bool { return r.UserID == userID }), nil
}

func (m *MockRatingRepository) Delete(_ context.Context, groupID, movieID, userID uint) (bool, error) {
	key := ratingKey{groupID, movieID, userID}
	if _, ok := m.rows[key]; !ok {
		return false, nil
	}
	delete(m.rows, key)
	return true, nil
}

func (m *MockRatingRepository) DeleteForMovie(_ context.Context, groupID, movieID uint) error {
	for key := range m.rows {
		if key.group == groupID && key.movie == movieID {
			delete(m.rows, key)
		}
	}
	return nil
}

func (m *MockRatingRepository) countFor(groupID, movieID, userID uint) int {
	n := 0
	for key := range m.rows {
		if key == (ratingKey{groupID, movieID, userID}) {
			n++
		}
	}
	return n
}

// MockWatchlistRepository implements repository.WatchlistRepositoryInterface.
type MockWatchlistRepository struct {
	items  map[uint]*models.WatchlistItem
	movies *MockMovieRepository
	nextID uint
}

func NewMockWatchlistRepository(movies *MockMovieRepository) *MockWatchlistRepository {
	return &MockWatchlistRepository{items: make(map[uint]*models.WatchlistItem), movies: movies, nextID: 1}
}

func (m *MockWatchlistRepository) Create(_ context.Context, item *models.WatchlistItem) error {
	item.ID = m.nextID
	m.nextID++
	item.CreatedAt = time.Now()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *MockWatchlistRepository) load(item *models.WatchlistItem) models.WatchlistItem {
	cp := *item
	if mv, err := m.movies.FindByID(context.Background(), item.MovieID); err == nil {
		cp.Movie = *mv
	}
	return cp
}

func (m *MockWatchlistRepository) FindByID(_ context.Context, id uint) (*models.WatchlistItem, error) {
	if item, ok := m.items[id]; ok {
		cp := m.load(item)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockWatchlistRepository) ListByGroup(_ context.Context, groupID uint) ([]models.WatchlistItem, error) {
	var out []models.WatchlistItem
	for _, item := range m.items {
		if item.GroupID == groupID {
			out = append(out, m.load(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockWatchlistRepository) MaxPriority(_ context.Context, groupID uint) (int, error) {
	max := 0
	for _, item := range m.items {
		if item.GroupID == groupID && item.Priority > max {
			max = item.Priority
		}
	}
	return max, nil
}

func (m *MockWatchlistRepository) Delete(_ context.Context, id uint) error {
	delete(m.items, id)
	return nil
}

// MockInviteCodeRepository implements repository.InviteCodeRepositoryInterface.
type MockInviteCodeRepository struct {
	codes  map[uint]*models.InviteCode
	nextID uint
}

func NewMockInviteCodeRepository() *MockInviteCodeRepository {
	return &MockInviteCodeRepository{codes: make(map[uint]*models.InviteCode), nextID: 1}
}

func (m *MockInviteCodeRepository) Create(_ context.Context, code *models.InviteCode) error {
	for _, c := range m.codes {
		if c.Code == code.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	code.ID = m.nextID
	m.nextID++
	cp := *code
	m.codes[code.ID] = &cp
	return nil
}

func (m *MockInviteCodeRepository) FindByCode(_ context.Context, code string) (*models.InviteCode, error) {
	for _, c := range m.codes {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockInviteCodeRepository) FindByID(_ context.Context, id uint) (*models.InviteCode, error) {
	if c, ok := m.codes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockInviteCodeRepository) ListActiveByGroup(_ context.Context, groupID uint) ([]models.InviteCode, error) {
	var out []models.InviteCode
	for _, c := range m.codes {
		if c.GroupID == groupID && c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MockInviteCodeRepository) IncrementUse(_ context.Context, id uint) error {
	if c, ok := m.codes[id]; ok {
		c.Uses++
	}
	return nil
}

func (m *MockInviteCodeRepository) Deactivate(_ context.Context, id uint) error {
	if c, ok := m.codes[id]; ok {
		c.IsActive = false
	}
	return nil
}

// MockActivityRepository implements repository.ActivityRepositoryInterface.
type MockActivityRepository struct {
	items  []models.ActivityItem
	nextID uint
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{nextID: 1}
}

func (m *MockActivityRepository) Create(_ context.Context, item *models.ActivityItem) error {
	item.ID = m.nextID
	m.nextID++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *MockActivityRepository) ListByGroup(_ context.Context, groupID uint, before *time.Time, limit int) ([]models.ActivityItem, error) {
	var out []models.ActivityItem
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		it := m.items[i]
		if it.GroupID != groupID {
			continue
		}
		if before != nil && !it.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *MockActivityRepository) ListByGroups(_ context.Context, groupIDs []uint, limit int) ([]models.ActivityItem, error) {
	allowed := make(map[uint]bool, len(groupIDs))
	for _, id := range groupIDs {
		allowed[id] = true
	}
	var out []models.ActivityItem
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		if allowed[m.items[i].GroupID] {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *MockActivityRepository) types() []models.ActivityType {
	out := make([]models.ActivityType, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it.Type)
	}
	return out
}

// MockFavoriteRepository implements repository.FavoriteRepositoryInterface.
type MockFavoriteRepository struct {
	favs   map[[2]uint]*models.FavoriteMovie
	movies *MockMovieRepository
}

func NewMockFavoriteRepository(movies *MockMovieRepository) *MockFavoriteRepository {
	return &MockFavoriteRepository{favs: make(map[[2]uint]*models.FavoriteMovie), movies: movies}
}

func (m *MockFavoriteRepository) Add(_ context.Context, userID, movieID uint) error {
	key := [2]uint{userID, movieID}
	if _, ok := m.favs[key]; !ok {
		m.favs[key] = &models.FavoriteMovie{UserID: userID, MovieID: movieID, CreatedAt: time.Now()}
	}
	return nil
}

func (m *MockFavoriteRepository) Remove(_ context.Context, userID, movieID uint) error {
	delete(m.favs, [2]uint{userID, movieID})
	return nil
}

func (m *MockFavoriteRepository) ListByUser(_ context.Context, userID uint) ([]models.FavoriteMovie, error) {
	var out []models.FavoriteMovie
	for key, f := range m.favs {
		if key[0] == userID {
			cp := *f
			if mv, err := m.movies.FindByID(context.Background(), f.MovieID); err == nil {
				cp.Movie = *mv
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MovieID < out[j].MovieID })
	return out, nil
}

// fakeProvider serves canned TMDB details and counts requests.
type fakeProvider struct {
	details  map[int]*tmdb.MovieDetails
	calls    int
	failWith error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{details: make(map[int]*tmdb.MovieDetails)}
}

func (p *fakeProvider) add(id int, title, release string, genres ...string) {
	d := &tmdb.MovieDetails{ID: id, Title: title, ReleaseDate: release, Runtime: 120}
	for i, g := range genres {
		d.Genres = append(d.Genres, tmdb.Genre{ID: i + 1, Name: g})
	}
	d.Credits.Crew = []tmdb.CrewMember{{Name: "Writer", Job: "Screenplay"}, {Name: "Director of " + title, Job: "Director"}}
	p.details[id] = d
}

func (p *fakeProvider) MovieDetails(_ context.Context, id int) (*tmdb.MovieDetails, []byte, error) {
	p.calls++
	if p.failWith != nil {
		return nil, nil, p.failWith
	}
	d, ok := p.details[id]
	if !ok {
		return nil, nil, tmdb.ErrNotFound
	}
	return d, []byte(`{"id":` + strconv.Itoa(d.ID) + `}`), nil
}

func (p *fakeProvider) SearchMovies(_ context.Context, query string, page int) (*tmdb.SearchResponse, error) {
	p.calls++
	if p.failWith != nil {
		return nil, p.failWith
	}
	resp := &tmdb.SearchResponse{Page: page}
	for _, d := range p.details {
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(query)) {
			resp.Results = append(resp.Results, tmdb.SearchResult{ID: d.ID, Title: d.Title, ReleaseDate: d.ReleaseDate})
		}
	}
	resp.TotalResults = len(resp.Results)
	return resp, nil
}

// recordingNotifier captures fan-out calls.
type recordingNotifier struct {
	items      []models.ActivityItem
	recipients [][]uint
}

func (n *recordingNotifier) NotifyActivity(_ context.Context, item *models.ActivityItem, recipients []uint) {
	n.items = append(n.items, *item)
	n.recipients = append(n.recipients, recipients)
}
