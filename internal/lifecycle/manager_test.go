package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"barberhub/internal/models"
	"barberhub/internal/repository"
)

var lifecycleNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type fakeAlertStore struct {
	alerts    map[int64]*models.Alert
	updateErr error
}

func (f *fakeAlertStore) Create(_ context.Context, alert *models.Alert) error { return nil }

func (f *fakeAlertStore) GetByID(_ context.Context, tenantID string, id int64) (*models.Alert, error) {
	a, ok := f.alerts[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	return a, nil
}

func (f *fakeAlertStore) FindRecentByFingerprint(context.Context, string, string, time.Time) (*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertStore) IncrementSimilarCount(context.Context, int64) (*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertStore) UpdateStatus(_ context.Context, id int64, status models.AlertStatus, reason *string, expiresAt *time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	a := f.alerts[id]
	a.Status = status
	a.StatusReason = reason
	if expiresAt != nil {
		a.ExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeAlertStore) ListActive(context.Context, string, int, *models.AlertCategory, int) ([]*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertStore) ListCreatedSince(context.Context, string, time.Time, int) ([]*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertStore) ListActiveWithFeatures(context.Context, time.Time, int) ([]*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertStore) CountRecent(context.Context, string, models.AlertCategory, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeAlertStore) CountRecentByTitle(context.Context, string, string, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeAlertStore) ExpireDue(context.Context, time.Time, string) (int64, error) {
	return 0, nil
}

func (f *fakeAlertStore) WakeSnoozed(context.Context, time.Time, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAlertStore) TenantsWithRecentAlerts(context.Context, time.Time) ([]string, error) {
	return nil, nil
}

func (f *fakeAlertStore) RollupCounts(context.Context, string, time.Time) (map[string]int, error) {
	return nil, nil
}

type fakeInteractionStore struct {
	created []*models.Interaction
}

func (f *fakeInteractionStore) Create(_ context.Context, i *models.Interaction) error {
	f.created = append(f.created, i)
	return nil
}

func (f *fakeInteractionStore) HasInteraction(_ context.Context, alertID int64, userID string, typ models.InteractionType) (bool, error) {
	for _, i := range f.created {
		if i.AlertID == alertID && i.UserID == userID && i.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInteractionStore) StatsSince(context.Context, string, time.Time) ([]repository.InteractionStat, error) {
	return nil, nil
}

func (f *fakeInteractionStore) DismissAckRatios(context.Context, time.Time) ([]repository.TenantCategoryRatio, error) {
	return nil, nil
}

type fakeTrainingStore struct {
	samples []*models.TrainingSample
}

func (f *fakeTrainingStore) Create(_ context.Context, s *models.TrainingSample) error {
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeTrainingStore) ListSince(context.Context, time.Time, int) ([]*models.TrainingSample, error) {
	return nil, nil
}

func (f *fakeTrainingStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeRuleStore struct {
	folded map[string]float64
}

func (f *fakeRuleStore) GetByTenantCategory(context.Context, string, models.AlertCategory) (*models.AlertRule, error) {
	return nil, nil
}

func (f *fakeRuleStore) ListByTenant(context.Context, string) ([]*models.AlertRule, error) {
	return nil, nil
}

func (f *fakeRuleStore) RecordTrigger(context.Context, string, models.AlertCategory) error {
	return nil
}

func (f *fakeRuleStore) FoldFeedback(_ context.Context, tenantID string, category models.AlertCategory, score float64) error {
	if f.folded == nil {
		f.folded = map[string]float64{}
	}
	f.folded[tenantID+"|"+string(category)] = score
	return nil
}

type managerFixture struct {
	manager      *Manager
	alerts       *fakeAlertStore
	interactions *fakeInteractionStore
	training     *fakeTrainingStore
	rules        *fakeRuleStore
}

func newFixture(alerts ...*models.Alert) *managerFixture {
	store := &fakeAlertStore{alerts: map[int64]*models.Alert{}}
	for _, a := range alerts {
		store.alerts[a.ID] = a
	}
	interactions := &fakeInteractionStore{}
	training := &fakeTrainingStore{}
	rules := &fakeRuleStore{}
	m := NewManager(store, interactions, training, rules, zap.NewNop())
	m.now = func() time.Time { return lifecycleNow }
	return &managerFixture{manager: m, alerts: store, interactions: interactions, training: training, rules: rules}
}

func activeAlert(id int64) *models.Alert {
	return &models.Alert{
		ID:         id,
		TenantID:   "tenant-1",
		Category:   models.CategoryRevenueAnomaly,
		Priority:   models.PriorityHigh,
		Status:     models.StatusActive,
		Title:      "Revenue drop",
		MLFeatures: models.FloatMap{"revenue_impact": 0.45},
		CreatedAt:  lifecycleNow.Add(-30 * time.Minute),
	}
}

func TestAcknowledgeActiveAlert(t *testing.T) {
	fx := newFixture(activeAlert(1))

	res, err := fx.manager.Acknowledge(context.Background(), "tenant-1", 1, "user-1", "looking into it")
	if err != nil {
		t.Fatalf("Acknowledge returned error: %v", err)
	}
	if !res.Changed {
		t.Errorf("acknowledging an active alert should report a change")
	}
	if res.Alert.Status != models.StatusAcknowledged {
		t.Errorf("status = %s, want acknowledged", res.Alert.Status)
	}

	if len(fx.interactions.created) != 1 {
		t.Fatalf("want 1 interaction recorded, got %d", len(fx.interactions.created))
	}
	got := fx.interactions.created[0]
	if got.Type != models.InteractionAcknowledged {
		t.Errorf("interaction type = %s, want acknowledged", got.Type)
	}
	if got.ResponseTimeSeconds != 1800 {
		t.Errorf("response time = %f seconds, want 1800", got.ResponseTimeSeconds)
	}

	if len(fx.training.samples) != 1 || fx.training.samples[0].FeedbackScore != ackFeedbackScore {
		t.Errorf("acknowledgment should append a sample with score %f", ackFeedbackScore)
	}
}

func TestAcknowledgeSettledAlertIsIdempotent(t *testing.T) {
	dismissed := activeAlert(1)
	dismissed.Status = models.StatusDismissed
	fx := newFixture(dismissed)

	res, err := fx.manager.Acknowledge(context.Background(), "tenant-1", 1, "user-1", "")
	if err != nil {
		t.Fatalf("Acknowledge returned error: %v", err)
	}
	if res.Changed {
		t.Errorf("acknowledging a dismissed alert must be a no-op")
	}
	if len(fx.interactions.created) != 0 {
		t.Errorf("no-op acknowledge should not record an interaction")
	}
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	fx := newFixture()

	_, err := fx.manager.Acknowledge(context.Background(), "tenant-1", 99, "user-1", "")
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("got %v, want ErrAlertNotFound", err)
	}
}

func TestAcknowledgeWrongTenant(t *testing.T) {
	fx := newFixture(activeAlert(1))

	_, err := fx.manager.Acknowledge(context.Background(), "tenant-2", 1, "user-1", "")
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("cross-tenant access should read as not found, got %v", err)
	}
}

func TestReacknowledgeAfterWakeRecordsFeedbackOnce(t *testing.T) {
	fx := newFixture(activeAlert(1))

	if _, err := fx.manager.Acknowledge(context.Background(), "tenant-1", 1, "user-1", ""); err != nil {
		t.Fatalf("Acknowledge returned error: %v", err)
	}
	// The background sweep reactivates snoozed alerts; simulate one
	// returning to active after the first acknowledgement.
	fx.alerts.alerts[1].Status = models.StatusActive

	res, err := fx.manager.Acknowledge(context.Background(), "tenant-1", 1, "user-1", "still on it")
	if err != nil {
		t.Fatalf("second Acknowledge returned error: %v", err)
	}
	if !res.Changed {
		t.Errorf("re-acknowledging a woken alert should change its status")
	}
	if len(fx.interactions.created) != 1 {
		t.Errorf("want 1 interaction for repeat acknowledgement, got %d", len(fx.interactions.created))
	}
	if len(fx.training.samples) != 1 {
		t.Errorf("want 1 training sample for repeat acknowledgement, got %d", len(fx.training.samples))
	}
}

func TestDismissFoldsSpamFeedbackIntoRule(t *testing.T) {
	fx := newFixture(activeAlert(1))

	res, err := fx.manager.Dismiss(context.Background(), "tenant-1", 1, "user-1", "this is spam", "not relevant")
	if err != nil {
		t.Fatalf("Dismiss returned error: %v", err)
	}
	if res.Alert.Status != models.StatusDismissed {
		t.Errorf("status = %s, want dismissed", res.Alert.Status)
	}
	if res.Alert.StatusReason == nil || *res.Alert.StatusReason != "not relevant" {
		t.Errorf("dismissal reason not stored")
	}

	folded := fx.rules.folded["tenant-1|revenue_anomaly"]
	if folded != noiseFeedbackScore {
		t.Errorf("spam feedback folded as %f, want %f", folded, noiseFeedbackScore)
	}
	if len(fx.training.samples) != 1 || fx.training.samples[0].FeedbackScore != noiseFeedbackScore {
		t.Errorf("spam dismissal should append a low-score sample")
	}
}

func TestDismissStatusFailurePropagates(t *testing.T) {
	fx := newFixture(activeAlert(1))
	fx.alerts.updateErr = errors.New("connection reset")

	if _, err := fx.manager.Dismiss(context.Background(), "tenant-1", 1, "user-1", "", ""); err == nil {
		t.Errorf("status update failure must propagate")
	}
}

func TestResolveTerminalIsIdempotent(t *testing.T) {
	fx := newFixture(activeAlert(1))

	first, err := fx.manager.Resolve(context.Background(), "tenant-1", 1, "user-1", "fixed")
	if err != nil || !first.Changed {
		t.Fatalf("first resolve = (%+v, %v), want a change", first, err)
	}
	if len(fx.interactions.created) != 1 || fx.interactions.created[0].Type != models.InteractionResolved {
		t.Errorf("resolve should record a resolved interaction, got %+v", fx.interactions.created)
	}
	second, err := fx.manager.Resolve(context.Background(), "tenant-1", 1, "user-1", "fixed again")
	if err != nil {
		t.Fatalf("second resolve returned error: %v", err)
	}
	if second.Changed {
		t.Errorf("resolving a resolved alert must be a no-op")
	}
}

func TestSnoozeStoresWakeTime(t *testing.T) {
	fx := newFixture(activeAlert(1))
	until := lifecycleNow.Add(2 * time.Hour)

	res, err := fx.manager.Snooze(context.Background(), "tenant-1", 1, "user-1", until)
	if err != nil {
		t.Fatalf("Snooze returned error: %v", err)
	}
	if res.Alert.Status != models.StatusSnoozed {
		t.Errorf("status = %s, want snoozed", res.Alert.Status)
	}
	if res.Alert.ExpiresAt == nil || !res.Alert.ExpiresAt.Equal(until) {
		t.Errorf("wake time not stored in expires_at")
	}
	if len(fx.interactions.created) != 1 || fx.interactions.created[0].Type != models.InteractionSnoozed {
		t.Errorf("snooze should record a snoozed interaction, got %+v", fx.interactions.created)
	}
}

func TestSnoozeRejectsPastWakeTime(t *testing.T) {
	fx := newFixture(activeAlert(1))

	if _, err := fx.manager.Snooze(context.Background(), "tenant-1", 1, "user-1", lifecycleNow.Add(-time.Hour)); err == nil {
		t.Errorf("snoozing into the past must fail")
	}
}

func TestFeedbackScoreDerivation(t *testing.T) {
	cases := []struct {
		feedback string
		want     float64
	}{
		{"this was useful, thanks", usefulFeedbackScore},
		{"not useful at all", noiseFeedbackScore},
		{"pure noise", noiseFeedbackScore},
		{"SPAM", noiseFeedbackScore},
		{"irrelevant to my shop", noiseFeedbackScore},
		{"", defaultFeedbackScore},
		{"meh", defaultFeedbackScore},
	}
	for _, tc := range cases {
		if got := FeedbackScore(tc.feedback); got != tc.want {
			t.Errorf("FeedbackScore(%q) = %f, want %f", tc.feedback, got, tc.want)
		}
	}
}
