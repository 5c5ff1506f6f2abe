package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
	"github.com/talentgap/recruitment-evaluator/internal/usecase"
)

type fakeClients struct{ created []string }

func (f *fakeClients) Create(_ context.Context, name string) (domain.Client, error) {
	f.created = append(f.created, name)
	return domain.Client{ID: "client-1", Name: name}, nil
}
func (f *fakeClients) List(_ context.Context, _, _ int) ([]domain.Client, error) { return nil, nil }

type fakeInterviewers struct{}

func (fakeInterviewers) Create(_ context.Context, name string) (domain.Interviewer, error) {
	return domain.Interviewer{ID: "iv-1", Name: name}, nil
}
func (fakeInterviewers) List(_ context.Context, _, _ int) ([]domain.Interviewer, error) {
	return nil, nil
}

type capturingRequirements struct {
	created []domain.ClientRequirement
}

func (f *capturingRequirements) Create(_ context.Context, r domain.ClientRequirement) (string, error) {
	f.created = append(f.created, r)
	return "req-1", nil
}
func (f *capturingRequirements) Get(_ context.Context, _ string) (domain.ClientRequirement, error) {
	return domain.ClientRequirement{}, domain.ErrNotFound
}
func (f *capturingRequirements) List(_ context.Context, _ string, _, _ int) ([]domain.ClientRequirement, error) {
	return nil, nil
}

func TestCreateClient_TrimsAndRequiresName(t *testing.T) {
	clients := &fakeClients{}
	svc := usecase.NewSetupService(clients, fakeInterviewers{}, &capturingRequirements{}, usecase.NewTransformer(&fakeAI{}, 8))

	c, err := svc.CreateClient(context.Background(), "  Acme Corp  ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", c.Name)

	_, err = svc.CreateClient(context.Background(), "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCreateRequirement_StoresStandardizedForm(t *testing.T) {
	reqs := &capturingRequirements{}
	ai := &fakeAI{response: `{"standardized": "- 5y Go\n- Kubernetes"}`}
	svc := usecase.NewSetupService(&fakeClients{}, fakeInterviewers{}, reqs, usecase.NewTransformer(ai, 8))

	created, err := svc.CreateRequirement(context.Background(), "client-1", "Backend Engineer", "we need someone with 5 years of go and k8s")
	require.NoError(t, err)
	assert.Equal(t, "req-1", created.ID)
	require.Len(t, reqs.created, 1)
	assert.Equal(t, "- 5y Go\n- Kubernetes", reqs.created[0].StandardizedRequirements)
}

func TestCreateRequirement_StandardizationIsBestEffort(t *testing.T) {
	reqs := &capturingRequirements{}
	ai := &fakeAI{err: domain.ErrUpstream}
	svc := usecase.NewSetupService(&fakeClients{}, fakeInterviewers{}, reqs, usecase.NewTransformer(ai, 8))

	created, err := svc.CreateRequirement(context.Background(), "client-1", "SRE", "raw text")
	require.NoError(t, err, "transform failure must not block requirement creation")
	assert.Empty(t, created.StandardizedRequirements)
	require.Len(t, reqs.created, 1)
	assert.Equal(t, "raw text", reqs.created[0].RawContent)
}

func TestCreateRequirement_RequiresClientAndContent(t *testing.T) {
	svc := usecase.NewSetupService(&fakeClients{}, fakeInterviewers{}, &capturingRequirements{}, usecase.NewTransformer(&fakeAI{}, 8))

	_, err := svc.CreateRequirement(context.Background(), "", "SRE", "content")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.CreateRequirement(context.Background(), "client-1", "SRE", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
