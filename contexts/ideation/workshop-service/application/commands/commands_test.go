package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"ideaforge/contexts/ideation/workshop-service/adapters/export"
	sqliteadapter "ideaforge/contexts/ideation/workshop-service/adapters/sqlite"
	"ideaforge/contexts/ideation/workshop-service/application/queries"
	"ideaforge/contexts/ideation/workshop-service/domain/entities"
	domainerrors "ideaforge/contexts/ideation/workshop-service/domain/errors"
	"ideaforge/contexts/ideation/workshop-service/ports"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type seqIDs struct {
	next atomic.Int64
}

func (g *seqIDs) NewID(context.Context) (string, error) {
	return fmt.Sprintf("id-%04d", g.next.Add(1)), nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	votes    int
	rejected map[string]int
}

func (m *recordingMetrics) SessionCreated()                                           {}
func (m *recordingMetrics) StateChanged(entities.SessionState, entities.SessionState) {}
func (m *recordingMetrics) ContributionsSubmitted(int)                                {}

func (m *recordingMetrics) VoteCast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes++
}

func (m *recordingMetrics) VoteRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejected == nil {
		m.rejected = map[string]int{}
	}
	m.rejected[reason]++
}

type fixture struct {
	store    *sqliteadapter.Store
	sessions SessionUseCase
	topics   TopicUseCase
	roster   RosterUseCase
	submit   ContributionUseCase
	votes    VoteUseCase
	metrics  *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqliteadapter.Open(sqliteadapter.MemoryPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}
	metrics := &recordingMetrics{}
	return &fixture{
		store:    store,
		sessions: SessionUseCase{Store: store, Clock: clock, IDGen: ids, Metrics: metrics},
		topics:   TopicUseCase{Store: store, Clock: clock, IDGen: ids},
		roster:   RosterUseCase{Store: store, Clock: clock},
		submit:   ContributionUseCase{Store: store, Clock: clock, IDGen: ids, Metrics: metrics},
		votes:    VoteUseCase{Store: store, Clock: clock, IDGen: ids, Metrics: metrics},
		metrics:  metrics,
	}
}

const moderator = "alice@example.com"

// publishedSession returns a published session with the given number of
// locked topics.
func (f *fixture) publishedSession(t *testing.T, topicCount int) (entities.Session, []entities.Topic) {
	t.Helper()
	ctx := context.Background()
	session, err := f.sessions.CreateSession(ctx, CreateSessionCommand{Name: "Roadmap", ModeratorID: moderator})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	topics := make([]entities.Topic, 0, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := f.topics.AddTopic(ctx, AddTopicCommand{
			SessionID: session.SessionID,
			ActorID:   moderator,
			Domain:    "Ops",
			Name:      fmt.Sprintf("Topic %d", i+1),
		})
		if err != nil {
			t.Fatalf("add topic: %v", err)
		}
		if _, err := f.topics.LockTopic(ctx, LockTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: topic.TopicID}); err != nil {
			t.Fatalf("lock topic: %v", err)
		}
		topic.Locked = true
		topics = append(topics, topic)
	}
	session, err = f.sessions.SetState(ctx, SetStateCommand{SessionID: session.SessionID, ActorID: moderator, State: "published"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	return session, topics
}

func (f *fixture) join(t *testing.T, sessionID string, participants ...string) {
	t.Helper()
	for _, participant := range participants {
		if _, err := f.roster.Join(context.Background(), JoinCommand{SessionID: sessionID, ParticipantID: participant}); err != nil {
			t.Fatalf("join %s: %v", participant, err)
		}
	}
}

func (f *fixture) submitOne(t *testing.T, sessionID string, participant string, topicID string, text string) {
	t.Helper()
	_, err := f.submit.SubmitAll(context.Background(), SubmitAllCommand{
		SessionID:     sessionID,
		ParticipantID: participant,
		Items:         []entities.ContributionItem{{TopicID: topicID, CurrentStatus: text}},
	})
	if err != nil {
		t.Fatalf("submit for %s: %v", participant, err)
	}
}

func (f *fixture) setState(t *testing.T, sessionID string, state string) {
	t.Helper()
	if _, err := f.sessions.SetState(context.Background(), SetStateCommand{SessionID: sessionID, ActorID: moderator, State: state}); err != nil {
		t.Fatalf("set state %s: %v", state, err)
	}
}

func (f *fixture) onlyContribution(t *testing.T, sessionID string) entities.ContributionView {
	t.Helper()
	views, err := f.store.ListContributionViews(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one contribution, got %d", len(views))
	}
	return views[0]
}

func TestCreateSessionEnrolsModerator(t *testing.T) {
	f := newFixture(t)
	session, err := f.sessions.CreateSession(context.Background(), CreateSessionCommand{Name: " Roadmap ", ModeratorID: " Alice@Example.com "})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.State != entities.SessionStateSetup || session.Name != "Roadmap" || session.ModeratorID != moderator {
		t.Fatalf("unexpected session %+v", session)
	}
	participant, err := f.store.GetParticipant(context.Background(), session.SessionID, moderator)
	if err != nil {
		t.Fatalf("moderator should be enrolled: %v", err)
	}
	if participant.Status != entities.ParticipantStatusJoined {
		t.Fatalf("expected joined status, got %s", participant.Status)
	}
}

func TestCreateSessionRequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.CreateSession(context.Background(), CreateSessionCommand{Name: "  ", ModeratorID: moderator})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSetStateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.sessions.CreateSession(ctx, CreateSessionCommand{Name: "Roadmap", ModeratorID: moderator})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, err = f.sessions.SetState(ctx, SetStateCommand{SessionID: session.SessionID, ActorID: moderator, State: "published"})
	if !errors.Is(err, domainerrors.ErrTopicsNotLocked) {
		t.Fatalf("publishing without topics should fail, got %v", err)
	}

	topic, err := f.topics.AddTopic(ctx, AddTopicCommand{SessionID: session.SessionID, ActorID: moderator, Name: "Hiring"})
	if err != nil {
		t.Fatalf("add topic: %v", err)
	}
	_, err = f.sessions.SetState(ctx, SetStateCommand{SessionID: session.SessionID, ActorID: moderator, State: "published"})
	if !errors.Is(err, domainerrors.ErrTopicsNotLocked) {
		t.Fatalf("publishing with an unlocked topic should fail, got %v", err)
	}
	if _, err := f.topics.LockTopic(ctx, LockTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: topic.TopicID}); err != nil {
		t.Fatalf("lock topic: %v", err)
	}

	cases := []struct {
		name  string
		actor string
		state string
		want  error
	}{
		{name: "unknown state", actor: moderator, state: "archived", want: domainerrors.ErrUnknownState},
		{name: "non moderator", actor: "bob@example.com", state: "published", want: domainerrors.ErrNotAuthorized},
		{name: "skip ahead", actor: moderator, state: "voting", want: domainerrors.ErrInvalidTransition},
		{name: "same state", actor: moderator, state: "setup", want: nil},
		{name: "alias of published", actor: moderator, state: "contributing", want: nil},
		{name: "repeat published", actor: moderator, state: "published", want: nil},
		{name: "backwards", actor: moderator, state: "setup", want: domainerrors.ErrInvalidTransition},
		{name: "to voting", actor: moderator, state: "voting", want: nil},
		{name: "to voting_locked", actor: moderator, state: "voting_locked", want: nil},
		{name: "to final", actor: moderator, state: "final", want: nil},
		{name: "past final", actor: moderator, state: "voting", want: domainerrors.ErrInvalidTransition},
	}
	for _, tc := range cases {
		updated, err := f.sessions.SetState(ctx, SetStateCommand{SessionID: session.SessionID, ActorID: tc.actor, State: tc.state})
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			if updated.State == entities.SessionStateContributing {
				t.Fatalf("%s: contributing must be stored as published", tc.name)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTopicEditingRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.sessions.CreateSession(ctx, CreateSessionCommand{Name: "Roadmap", ModeratorID: moderator})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	first, err := f.topics.AddTopic(ctx, AddTopicCommand{SessionID: session.SessionID, ActorID: moderator, Name: "First"})
	if err != nil {
		t.Fatalf("add topic: %v", err)
	}
	second, err := f.topics.AddTopic(ctx, AddTopicCommand{SessionID: session.SessionID, ActorID: moderator, Name: "Second"})
	if err != nil {
		t.Fatalf("add topic: %v", err)
	}
	if second.SortOrder <= first.SortOrder {
		t.Fatalf("sort order should grow, got %d then %d", first.SortOrder, second.SortOrder)
	}

	if _, err := f.topics.AddTopic(ctx, AddTopicCommand{SessionID: session.SessionID, ActorID: "bob@example.com", Name: "Nope"}); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	updated, err := f.topics.UpdateTopic(ctx, UpdateTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: first.TopicID, Domain: "People", Name: "Renamed"})
	if err != nil {
		t.Fatalf("update topic: %v", err)
	}
	if updated.Name != "Renamed" || updated.Domain != "People" {
		t.Fatalf("unexpected topic %+v", updated)
	}

	if _, err := f.topics.LockTopic(ctx, LockTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: first.TopicID}); err != nil {
		t.Fatalf("lock topic: %v", err)
	}
	if _, err := f.topics.LockTopic(ctx, LockTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: first.TopicID}); !errors.Is(err, domainerrors.ErrTopicAlreadyLocked) {
		t.Fatalf("expected already locked, got %v", err)
	}
	if _, err := f.topics.UpdateTopic(ctx, UpdateTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: first.TopicID, Name: "Again"}); !errors.Is(err, domainerrors.ErrTopicLocked) {
		t.Fatalf("expected topic locked, got %v", err)
	}
	if _, err := f.topics.LockTopic(ctx, LockTopicCommand{SessionID: session.SessionID, ActorID: moderator, TopicID: "missing"}); !errors.Is(err, domainerrors.ErrTopicNotFound) {
		t.Fatalf("expected topic not found, got %v", err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, _ := f.publishedSession(t, 1)

	first, err := f.roster.Join(ctx, JoinCommand{SessionID: session.SessionID, ParticipantID: "Bob@Example.com", DisplayName: "Bob"})
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := f.roster.Join(ctx, JoinCommand{SessionID: session.SessionID, ParticipantID: "bob@example.com", DisplayName: "Robert"})
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if !first.Created || second.Created {
		t.Fatalf("expected created then existing, got %v then %v", first.Created, second.Created)
	}
	if second.Participant.DisplayName != "Bob" || !second.Participant.JoinedAt.Equal(first.Participant.JoinedAt) {
		t.Fatalf("repeated join must not change the roster row: %+v", second.Participant)
	}

	participants, err := f.store.ListParticipants(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected moderator and bob, got %d participants", len(participants))
	}
}

func TestReportHidesParticipantIDsWithoutDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "u1@x.com")

	participant, err := f.store.GetParticipant(ctx, session.SessionID, "u1@x.com")
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if participant.DisplayName != "Participant 2" {
		t.Fatalf("expected roster position fallback, got %q", participant.DisplayName)
	}

	f.submitOne(t, session.SessionID, "u1@x.com", topics[0].TopicID, "manual triage")
	f.setState(t, session.SessionID, "voting")
	f.setState(t, session.SessionID, "voting_locked")
	f.setState(t, session.SessionID, "final")

	report, err := queries.ReportUseCase{Sessions: f.store, Topics: f.store, Contributions: f.store}.Compile(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("compile report: %v", err)
	}
	if got := report.Topics[0].Contributions[0].ContributorName; got != "Participant 2" {
		t.Fatalf("unexpected contributor name %q", got)
	}
	for _, format := range []export.Format{export.FormatJSON, export.FormatText, export.FormatMarkdown, export.FormatCSV} {
		body, err := export.Render(report, format)
		if err != nil {
			t.Fatalf("render %s: %v", format, err)
		}
		for _, id := range []string{"u1@x.com", moderator} {
			if strings.Contains(string(body), id) {
				t.Fatalf("%s report exposes participant id %q:\n%s", format, id, body)
			}
		}
	}
}

func TestJoinRejectedWhenFinal(t *testing.T) {
	f := newFixture(t)
	session, _ := f.publishedSession(t, 1)
	f.setState(t, session.SessionID, "voting")
	f.setState(t, session.SessionID, "voting_locked")
	f.setState(t, session.SessionID, "final")

	_, err := f.roster.Join(context.Background(), JoinCommand{SessionID: session.SessionID, ParticipantID: "late@example.com"})
	if !errors.Is(err, domainerrors.ErrSessionFinalized) {
		t.Fatalf("expected session finalized, got %v", err)
	}
}

func TestSubmitAllOverwritesPerTopic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 2)
	f.join(t, session.SessionID, "bob@example.com")

	saved, err := f.submit.SubmitAll(ctx, SubmitAllCommand{
		SessionID:     session.SessionID,
		ParticipantID: "bob@example.com",
		Items: []entities.ContributionItem{
			{TopicID: topics[0].TopicID, CurrentStatus: "first draft"},
			{TopicID: topics[1].TopicID, CurrentStatus: "other topic"},
		},
	})
	if err != nil || saved != 2 {
		t.Fatalf("first submission: saved=%d err=%v", saved, err)
	}
	before, err := f.store.GetParticipant(ctx, session.SessionID, "bob@example.com")
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if before.Status != entities.ParticipantStatusSubmitted || before.SubmittedAt == nil {
		t.Fatalf("participant should be marked submitted: %+v", before)
	}

	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "  final answer  ")

	views, err := f.store.ListContributionViews(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("resubmission must overwrite, got %d contributions", len(views))
	}
	var overwritten bool
	for _, view := range views {
		if view.TopicID == topics[0].TopicID {
			overwritten = view.CurrentStatus == "final answer"
		}
	}
	if !overwritten {
		t.Fatalf("expected trimmed overwrite on first topic, got %+v", views)
	}

	after, err := f.store.GetParticipant(ctx, session.SessionID, "bob@example.com")
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if !after.SubmittedAt.Equal(*before.SubmittedAt) {
		t.Fatalf("submitted_at should keep the first submission, got %v want %v", after.SubmittedAt, before.SubmittedAt)
	}
}

func TestSubmitAllRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com")

	cases := []struct {
		name        string
		participant string
		items       []entities.ContributionItem
		want        error
	}{
		{name: "blank participant", participant: " ", items: []entities.ContributionItem{{TopicID: topics[0].TopicID}}, want: domainerrors.ErrInvalidInput},
		{name: "empty batch", participant: "bob@example.com", want: domainerrors.ErrEmptySubmission},
		{name: "not joined", participant: "carol@example.com", items: []entities.ContributionItem{{TopicID: topics[0].TopicID}}, want: domainerrors.ErrParticipantNotFound},
		{name: "blank topic", participant: "bob@example.com", items: []entities.ContributionItem{{TopicID: " "}}, want: domainerrors.ErrInvalidInput},
		{
			name:        "unknown topic rolls back batch",
			participant: "bob@example.com",
			items: []entities.ContributionItem{
				{TopicID: topics[0].TopicID, CurrentStatus: "valid"},
				{TopicID: "missing"},
			},
			want: domainerrors.ErrTopicNotFound,
		},
	}
	for _, tc := range cases {
		_, err := f.submit.SubmitAll(ctx, SubmitAllCommand{SessionID: session.SessionID, ParticipantID: tc.participant, Items: tc.items})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	views, err := f.store.ListContributionViews(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("rejected batches must not persist anything, got %d rows", len(views))
	}
	bob, err := f.store.GetParticipant(ctx, session.SessionID, "bob@example.com")
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if bob.Status != entities.ParticipantStatusJoined {
		t.Fatalf("rejected batch must not mark submission, got %s", bob.Status)
	}
}

func TestCastVoteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com", "carol@example.com")
	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "idea")
	contribution := f.onlyContribution(t, session.SessionID)

	cmd := CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "carol@example.com"}
	if _, err := f.votes.CastVote(ctx, cmd); !errors.Is(err, domainerrors.ErrVotingNotEnabled) {
		t.Fatalf("expected voting not enabled, got %v", err)
	}
	f.setState(t, session.SessionID, "voting")

	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "BOB@example.com"}); !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self vote forbidden, got %v", err)
	}
	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "dave@example.com"}); !errors.Is(err, domainerrors.ErrParticipantNotFound) {
		t.Fatalf("expected participant not found, got %v", err)
	}
	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: "missing", VoterID: "carol@example.com"}); !errors.Is(err, domainerrors.ErrContributionNotFound) {
		t.Fatalf("expected contribution not found, got %v", err)
	}

	result, err := f.votes.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if result.Votes != 1 {
		t.Fatalf("expected 1 vote, got %d", result.Votes)
	}
	if _, err := f.votes.CastVote(ctx, cmd); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}
	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: moderator}); err != nil {
		t.Fatalf("moderator vote: %v", err)
	}

	f.setState(t, session.SessionID, "voting_locked")
	if _, err := f.votes.CastVote(ctx, cmd); !errors.Is(err, domainerrors.ErrVotingNotEnabled) {
		t.Fatalf("expected voting closed, got %v", err)
	}

	count, err := f.store.CountVotes(ctx, contribution.ContributionID)
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 votes, got %d", count)
	}

	f.metrics.mu.Lock()
	defer f.metrics.mu.Unlock()
	if f.metrics.votes != 2 {
		t.Fatalf("expected 2 recorded votes, got %d", f.metrics.votes)
	}
	if f.metrics.rejected[string(domainerrors.KindSelfVoteForbidden)] != 1 ||
		f.metrics.rejected[string(domainerrors.KindDuplicateVote)] != 1 ||
		f.metrics.rejected[string(domainerrors.KindInvalidSessionState)] != 2 {
		t.Fatalf("unexpected rejection metrics %v", f.metrics.rejected)
	}
}

func TestConcurrentVotesAreCountedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com")

	voters := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		voter := fmt.Sprintf("voter%02d@example.com", i)
		voters = append(voters, voter)
	}
	f.join(t, session.SessionID, voters...)
	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "idea")
	f.setState(t, session.SessionID, "voting")
	contribution := f.onlyContribution(t, session.SessionID)

	// Every voter tries three times concurrently; exactly one attempt each
	// may succeed.
	var accepted, duplicates atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, voter := range voters {
		for attempt := 0; attempt < 3; attempt++ {
			voter := voter
			g.Go(func() error {
				_, err := f.votes.CastVote(gctx, CastVoteCommand{
					SessionID:      session.SessionID,
					ContributionID: contribution.ContributionID,
					VoterID:        voter,
				})
				switch {
				case err == nil:
					accepted.Add(1)
					return nil
				case errors.Is(err, domainerrors.ErrDuplicateVote):
					duplicates.Add(1)
					return nil
				default:
					return err
				}
			})
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent votes: %v", err)
	}
	if accepted.Load() != int64(len(voters)) || duplicates.Load() != int64(2*len(voters)) {
		t.Fatalf("expected %d accepted and %d duplicates, got %d and %d",
			len(voters), 2*len(voters), accepted.Load(), duplicates.Load())
	}
	count, err := f.store.CountVotes(ctx, contribution.ContributionID)
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != len(voters) {
		t.Fatalf("expected %d votes, got %d", len(voters), count)
	}
}

func TestStateGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com", "carol@example.com")
	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "idea")
	contribution := f.onlyContribution(t, session.SessionID)

	type outcome struct {
		addTopic bool
		submit   bool
		vote     bool
		join     bool
	}
	steps := []struct {
		state string
		want  outcome
	}{
		{state: "published", want: outcome{submit: true, join: true}},
		{state: "voting", want: outcome{vote: true, join: true}},
		{state: "voting_locked", want: outcome{join: true}},
		{state: "final", want: outcome{}},
	}
	for _, step := range steps {
		f.setState(t, session.SessionID, step.state)

		_, err := f.topics.AddTopic(ctx, AddTopicCommand{SessionID: session.SessionID, ActorID: moderator, Name: "Late"})
		if (err == nil) != step.want.addTopic {
			t.Fatalf("%s: add topic err=%v", step.state, err)
		}
		_, err = f.submit.SubmitAll(ctx, SubmitAllCommand{
			SessionID:     session.SessionID,
			ParticipantID: "carol@example.com",
			Items:         []entities.ContributionItem{{TopicID: topics[0].TopicID, CurrentStatus: "late idea"}},
		})
		if (err == nil) != step.want.submit {
			t.Fatalf("%s: submit err=%v", step.state, err)
		}
		_, err = f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "carol@example.com"})
		if (err == nil) != step.want.vote {
			t.Fatalf("%s: vote err=%v", step.state, err)
		}
		_, err = f.roster.Join(ctx, JoinCommand{SessionID: session.SessionID, ParticipantID: "dave@example.com"})
		if (err == nil) != step.want.join {
			t.Fatalf("%s: join err=%v", step.state, err)
		}
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com", "carol@example.com")
	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "idea")
	f.setState(t, session.SessionID, "voting")
	contribution := f.onlyContribution(t, session.SessionID)
	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "carol@example.com"}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	if err := f.sessions.DeleteSession(ctx, DeleteSessionCommand{SessionID: session.SessionID, ActorID: "bob@example.com"}); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if err := f.sessions.DeleteSession(ctx, DeleteSessionCommand{SessionID: session.SessionID, ActorID: moderator}); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := f.store.GetSession(ctx, session.SessionID, ports.LockNone); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	remainingTopics, err := f.store.ListTopics(ctx, session.SessionID)
	if err != nil || len(remainingTopics) != 0 {
		t.Fatalf("topics should cascade: %d err=%v", len(remainingTopics), err)
	}
	participants, err := f.store.ListParticipants(ctx, session.SessionID)
	if err != nil || len(participants) != 0 {
		t.Fatalf("participants should cascade: %d err=%v", len(participants), err)
	}
	count, err := f.store.CountVotes(ctx, contribution.ContributionID)
	if err != nil || count != 0 {
		t.Fatalf("votes should cascade: %d err=%v", count, err)
	}
	if err := f.sessions.DeleteSession(ctx, DeleteSessionCommand{SessionID: session.SessionID, ActorID: moderator}); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestOutboxEventsNeverCarryVoters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, topics := f.publishedSession(t, 1)
	f.join(t, session.SessionID, "bob@example.com", "carol@example.com")
	f.submitOne(t, session.SessionID, "bob@example.com", topics[0].TopicID, "idea")
	f.setState(t, session.SessionID, "voting")
	contribution := f.onlyContribution(t, session.SessionID)
	if _, err := f.votes.CastVote(ctx, CastVoteCommand{SessionID: session.SessionID, ContributionID: contribution.ContributionID, VoterID: "carol@example.com"}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	pending, err := f.store.ListPendingOutbox(ctx, 100)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	var types []string
	for _, row := range pending {
		types = append(types, row.EventType)
		if row.PartitionKey != session.SessionID {
			t.Fatalf("event %s partitioned by %q", row.EventType, row.PartitionKey)
		}
	}
	want := []string{
		"session.created",
		"topic.locked",
		"session.state_changed",
		"contribution.batch_submitted",
		"session.state_changed",
		"vote.cast",
	}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("unexpected outbox events %v", types)
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[len(pending)-1].Payload, &envelope); err != nil {
		t.Fatalf("decode vote event: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode vote payload: %v", err)
	}
	if data["votes"] != float64(1) || data["contribution_id"] != contribution.ContributionID {
		t.Fatalf("unexpected vote payload %v", data)
	}
	for _, value := range data {
		if value == "carol@example.com" {
			t.Fatalf("vote event leaked voter identity: %v", data)
		}
	}
}
