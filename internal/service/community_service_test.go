package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeJoinRequestRepo struct {
	requests map[uuid.UUID]*model.JoinRequest
}

func newFakeJoinRequestRepo() *fakeJoinRequestRepo {
	return &fakeJoinRequestRepo{requests: make(map[uuid.UUID]*model.JoinRequest)}
}

func (f *fakeJoinRequestRepo) Create(_ context.Context, req *model.JoinRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeJoinRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return req, nil
}

func (f *fakeJoinRequestRepo) HasPending(_ context.Context, communityID, userID uuid.UUID) (bool, error) {
	for _, req := range f.requests {
		if req.CommunityID == communityID && req.UserID == userID && req.Status == string(moderation.StatusPending) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJoinRequestRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.JoinRequest, int64, error) {
	var out []model.JoinRequest
	for _, req := range f.requests {
		if req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeJoinRequestRepo) MarkReviewed(_ context.Context, id uuid.UUID, d moderation.Decision) error {
	req, ok := f.requests[id]
	if !ok || req.Status != string(moderation.StatusPending) {
		return moderation.ErrInvalidTransition
	}
	req.Status = string(d.Status)
	return nil
}

func (f *fakeJoinRequestRepo) ListPending(_ context.Context, _ moderation.PendingFilter) ([]model.JoinRequest, int64, error) {
	return nil, 0, nil
}

func (f *fakeJoinRequestRepo) CountByStatus(_ context.Context, _ []uuid.UUID) (map[moderation.Status]int64, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}
func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByUsername(_ context.Context, _ string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	return nil, 0, nil
}
func (f *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (f *fakeUserRepo) Delete(_ context.Context, _ string) error      { return nil }
func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, _ *model.RefreshToken) error {
	return nil
}
func (f *fakeUserRepo) GetRefreshToken(_ context.Context, _ string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) DeleteRefreshToken(_ context.Context, _ string) error { return nil }

func TestSubmitJoinRequestDeduplicates(t *testing.T) {
	communityID := uuid.New()
	requests := newFakeJoinRequestRepo()
	svc := NewCommunityService(memberCommunities(), requests, &fakeUserRepo{}, &fakeAudit{})

	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}

	req, err := svc.SubmitJoinRequest(context.Background(), resident, communityID, SubmitJoinRequestDTO{Message: " please "})
	require.NoError(t, err)
	assert.Equal(t, string(moderation.StatusPending), req.Status)
	assert.Equal(t, "please", req.Message)

	// A second request while one is pending is refused.
	_, err = svc.SubmitJoinRequest(context.Background(), resident, communityID, SubmitJoinRequestDTO{})
	var vErr *moderation.ValidationError
	require.ErrorAs(t, err, &vErr)

	// After a rejection the resident may apply again.
	require.NoError(t, requests.MarkReviewed(context.Background(), req.ID, moderation.Decision{Status: moderation.StatusRejected}))
	_, err = svc.SubmitJoinRequest(context.Background(), resident, communityID, SubmitJoinRequestDTO{})
	assert.NoError(t, err)
}

func TestSubmitJoinRequestRefusedForMembers(t *testing.T) {
	communityID := uuid.New()
	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	communities := memberCommunities([2]uuid.UUID{communityID, resident.ID})
	svc := NewCommunityService(communities, newFakeJoinRequestRepo(), &fakeUserRepo{}, &fakeAudit{})

	_, err := svc.SubmitJoinRequest(context.Background(), resident, communityID, SubmitJoinRequestDTO{})
	var vErr *moderation.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestAssignManagerRequiresManagerRole(t *testing.T) {
	communityID := uuid.New()
	residentID := uuid.New()
	managerID := uuid.New()
	users := &fakeUserRepo{users: map[string]*model.User{
		residentID.String(): {ID: residentID, Username: "bob", Role: moderation.RoleResident},
		managerID.String():  {ID: managerID, Username: "alice", Role: moderation.RoleManager},
	}}
	svc := NewCommunityService(memberCommunities(), newFakeJoinRequestRepo(), users, &fakeAudit{})

	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	err := svc.AssignManager(context.Background(), admin, communityID, residentID)
	var vErr *moderation.ValidationError
	assert.ErrorAs(t, err, &vErr, "residents cannot be given moderation scope")

	err = svc.AssignManager(context.Background(), admin, communityID, managerID)
	assert.NoError(t, err)
}
