package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/catalog"
	"showcase-bot/embed"
	"showcase-bot/models"
	"showcase-bot/policy"
	"showcase-bot/utils"
	"showcase-bot/videoref"
)

type stubStore struct {
	submissions []models.VideoSubmission
	deleteErr   error
	settings    map[string]string
}

func (s *stubStore) EnsureGuild(context.Context, string, string) error     { return nil }
func (s *stubStore) SetGuildActive(context.Context, string, bool) error     { return nil }
func (s *stubStore) SetGuildSetting(context.Context, string, string, string) error { return nil }
func (s *stubStore) AddGuildRole(context.Context, string, models.RoleType, string) error {
	return nil
}
func (s *stubStore) RemoveGuildRole(context.Context, string, models.RoleType, string) error {
	return nil
}
func (s *stubStore) GuildConfig(_ context.Context, guildID string) (models.GuildConfig, error) {
	return models.GuildConfig{Guild: models.Guild{ID: guildID, Active: true}, Settings: s.settings}, nil
}
func (s *stubStore) EnsureUser(_ context.Context, guildID, discordID string, _ time.Time) (models.User, error) {
	return models.User{ID: 1, GuildID: guildID, DiscordID: discordID}, nil
}
func (s *stubStore) CreateSubmission(_ context.Context, sub models.VideoSubmission) (models.VideoSubmission, error) {
	sub.ID = int64(len(s.submissions) + 1)
	sub.Active = true
	s.submissions = append(s.submissions, sub)
	return sub, nil
}
func (s *stubStore) UserSubmissions(context.Context, int64, int) ([]models.VideoSubmission, error) {
	return s.submissions, nil
}
func (s *stubStore) VideoByID(_ context.Context, id int64) (models.Video, error) {
	return models.Video{ID: id}, nil
}
func (s *stubStore) LinkCreator(context.Context, int64, int64) error { return nil }
func (s *stubStore) DeleteActiveSubmissionByMessage(_ context.Context, channelID, messageID string) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	kept := s.submissions[:0]
	var n int64
	for _, sub := range s.submissions {
		if sub.Active && sub.ChannelID == channelID && sub.MessageID == messageID {
			n++
			continue
		}
		kept = append(kept, sub)
	}
	s.submissions = kept
	return n, nil
}

type stubTransport struct {
	posted    []embed.Entry
	reactions []string
	deleted   []string
	dms       []string
	postErr   error
}

func (s *stubTransport) PostSubmission(_ string, e embed.Entry, reactions []string) (string, error) {
	if s.postErr != nil {
		return "", s.postErr
	}
	s.posted = append(s.posted, e)
	s.reactions = reactions
	return "firehose-msg", nil
}

func (s *stubTransport) DeleteMessage(_, messageID string) error {
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *stubTransport) DirectMessage(_, content string) error {
	s.dms = append(s.dms, content)
	return nil
}

type stubTrust struct {
	modifiers []models.TargetRef
	after     int
	setErr    error
}

func (s *stubTrust) SetModifier(_ context.Context, target models.TargetRef, flag models.Flag, reason string, d time.Duration, _ *int64) (models.Modifier, error) {
	if s.setErr != nil {
		return models.Modifier{}, s.setErr
	}
	s.modifiers = append(s.modifiers, target)
	return models.Modifier{TargetType: target.Kind, TargetID: target.ID, Flag: flag, Reason: reason}, nil
}

func (s *stubTrust) ClearModifiers(context.Context, models.TargetRef) (int64, error) { return 1, nil }

func (s *stubTrust) AfterSubmission(context.Context, models.User) error {
	s.after++
	return nil
}

type stubSafety struct{ entries []string }

func (s *stubSafety) Log(_ context.Context, _, level, title, _ string) {
	s.entries = append(s.entries, level+":"+title)
}

type stubResponder struct {
	notices   []string
	accepted  []string
	durations int
	asked     int
	answer    *bool
}

func (r *stubResponder) Notify(_ context.Context, message string) { r.notices = append(r.notices, message) }
func (r *stubResponder) Accepted(_ context.Context, link string)  { r.accepted = append(r.accepted, link) }
func (r *stubResponder) RequestDuration(context.Context, videoref.Reference) {
	r.durations++
}
func (r *stubResponder) ConfirmTimestamp(context.Context, videoref.Reference) (bool, bool) {
	r.asked++
	if r.answer == nil {
		return false, false
	}
	return *r.answer, true
}

// stubPipeline asks about the timestamp until KeepTimestamp is set, then accepts.
type stubPipeline struct {
	calls []policy.Event
}

func (p *stubPipeline) Evaluate(_ context.Context, ev policy.Event, pc policy.Context) (policy.Decision, []policy.Effect, error) {
	p.calls = append(p.calls, ev)
	if ev.Reference.HasTimestamp() && ev.KeepTimestamp == nil {
		return policy.Decision{Outcome: policy.NeedsTimestampDecision},
			[]policy.Effect{policy.ConfirmTimestamp{UserID: ev.AuthorID, Reference: ev.Reference}}, nil
	}
	return policy.Decision{Outcome: policy.Accepted}, []policy.Effect{
		policy.DeleteMessage{ChannelID: ev.ChannelID, MessageID: ev.MessageID},
		policy.PostSubmission{
			GuildID:   pc.Guild.ID,
			ChannelID: "firehose",
			User:      pc.User,
			Video:     models.Video{ID: 5, Title: "clip"},
			URL:       ev.Reference.PostURL(*ev.KeepTimestamp),
		},
	}, nil
}

type noopCatalog struct{}

func (noopCatalog) Details(_ context.Context, ref videoref.Reference, _ bool) (catalog.Metadata, error) {
	return catalog.Metadata{Reference: ref}, nil
}

func (noopCatalog) Record(context.Context, catalog.Metadata, *int) (models.Video, *models.Creator, error) {
	return models.Video{}, nil, nil
}

func newTestHandler() (*Handler, *stubStore, *stubTransport, *stubTrust, *stubSafety) {
	store, tr, tru, safety := &stubStore{}, &stubTransport{}, &stubTrust{}, &stubSafety{}
	h := New(Deps{
		Store:          store,
		Pipeline:       &stubPipeline{},
		Resolver:       videoref.NewResolver(),
		Catalog:        noopCatalog{},
		Trust:          tru,
		Transport:      tr,
		Safety:         safety,
		Reactions:      []string{"👍", "👎", "🚩"},
		ConfirmTimeout: 50 * time.Millisecond,
	})
	return h, store, tr, tru, safety
}

func TestApplyRejection(t *testing.T) {
	h, _, tr, tru, safety := newTestHandler()
	r := &stubResponder{}
	effects := []policy.Effect{
		policy.DeleteMessage{ChannelID: "c", MessageID: "m1"},
		policy.Notify{UserID: "u", Message: "rejected"},
		policy.ApplyModifier{Target: models.CreatorTarget(9), Flag: models.FlagDeny, Duration: 7 * 24 * time.Hour},
		policy.SafetyLog{GuildID: "g", Severity: policy.SeverityError, Title: "Creator blacklisted automatically"},
	}
	if _, err := h.apply(context.Background(), effects, r); err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if len(tr.deleted) != 1 || tr.deleted[0] != "m1" {
		t.Fatalf("expected m1 deleted, got %v", tr.deleted)
	}
	if len(r.notices) != 1 || r.notices[0] != "rejected" {
		t.Fatalf("unexpected notices %v", r.notices)
	}
	if len(tru.modifiers) != 1 || tru.modifiers[0] != models.CreatorTarget(9) {
		t.Fatalf("expected creator modifier, got %v", tru.modifiers)
	}
	if len(safety.entries) != 1 || safety.entries[0] != "ERROR:Creator blacklisted automatically" {
		t.Fatalf("unexpected safety log %v", safety.entries)
	}
}

func TestApplyModifierFailureIsLogged(t *testing.T) {
	h, _, _, tru, _ := newTestHandler()
	tru.setErr = errors.New("constraint failed")
	effects := []policy.Effect{policy.ApplyModifier{Target: models.CreatorTarget(9), Flag: models.FlagDeny}}
	if _, err := h.apply(context.Background(), effects, &stubResponder{}); err != nil {
		t.Fatalf("modifier failures should not abort: %v", err)
	}
}

func TestApplyPostSubmission(t *testing.T) {
	h, store, tr, tru, _ := newTestHandler()
	r := &stubResponder{}
	effects := []policy.Effect{policy.PostSubmission{
		GuildID:   "g1",
		ChannelID: "firehose",
		User:      models.User{ID: 4, DiscordID: "u4"},
		Video:     models.Video{ID: 8, Title: "clip"},
		Creator:   &models.Creator{Name: "Someone"},
		URL:       "https://www.youtube.com/watch?v=abcdefghijk",
	}}
	res, err := h.apply(context.Background(), effects, r)
	if err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if res.submitted == nil || res.submitted.MessageID != "firehose-msg" {
		t.Fatalf("unexpected submission %+v", res.submitted)
	}
	if got := store.submissions[0]; got.UserID != 4 || got.VideoID != 8 || got.ChannelID != "firehose" {
		t.Fatalf("unexpected stored submission %+v", got)
	}
	if tr.posted[0].SubmitterID != "u4" || tr.posted[0].CreatorName != "Someone" || len(tr.reactions) != 3 {
		t.Fatalf("unexpected post %+v with reactions %v", tr.posted[0], tr.reactions)
	}
	if tru.after != 1 {
		t.Fatal("expected the trust promotion hook to run")
	}
	if len(r.accepted) != 1 || r.accepted[0] != "https://discord.com/channels/g1/firehose/firehose-msg" {
		t.Fatalf("unexpected accepted link %v", r.accepted)
	}
}

func TestApplyPostFailureIsReturned(t *testing.T) {
	h, store, tr, _, _ := newTestHandler()
	tr.postErr = errors.New("missing access")
	effects := []policy.Effect{policy.PostSubmission{GuildID: "g1", ChannelID: "firehose"}}
	if _, err := h.apply(context.Background(), effects, &stubResponder{}); err == nil {
		t.Fatal("expected an error")
	}
	if len(store.submissions) != 0 {
		t.Fatal("nothing should be recorded")
	}
}

func timestampedEvent(t *testing.T) policy.Event {
	t.Helper()
	ref, ok := videoref.NewResolver().Parse("https://www.youtube.com/watch?v=abcdefghijk&t=90")
	if !ok || !ref.HasTimestamp() {
		t.Fatal("expected a timestamped reference")
	}
	return policy.Event{Source: policy.SourceMessage, ChannelID: "c", MessageID: "m", AuthorID: "u", Reference: ref}
}

func TestSubmitReevaluatesWithTimestampAnswer(t *testing.T) {
	h, store, tr, _, _ := newTestHandler()
	keep := true
	r := &stubResponder{answer: &keep}

	decision, err := h.submit(context.Background(), timestampedEvent(t), policy.Context{Guild: models.GuildConfig{Guild: models.Guild{ID: "g1"}}}, r)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if decision.Outcome != policy.Accepted || r.asked != 1 {
		t.Fatalf("expected acceptance after one question, got %s after %d", decision.Outcome, r.asked)
	}
	if len(store.submissions) != 1 || !strings.Contains(tr.posted[0].URL, "t=90") {
		t.Fatalf("expected the start time kept, got %+v", tr.posted)
	}
}

func TestSubmitCancelsWithoutAnswer(t *testing.T) {
	h, store, tr, _, _ := newTestHandler()
	r := &stubResponder{}

	decision, err := h.submit(context.Background(), timestampedEvent(t), policy.Context{}, r)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if decision.Outcome != policy.NeedsTimestampDecision {
		t.Fatalf("unexpected outcome %s", decision.Outcome)
	}
	if len(store.submissions) != 0 || len(tr.deleted) != 0 {
		t.Fatal("a cancelled submission must not be posted or deleted")
	}
	if len(r.notices) != 1 {
		t.Fatalf("expected a cancellation notice, got %v", r.notices)
	}
}

func TestConfirmations(t *testing.T) {
	c := NewConfirmations(time.Second)
	id, components := c.Prompt("u1")
	if len(components) != 1 {
		t.Fatalf("expected one action row, got %d", len(components))
	}

	if handled, allowed := c.Answer(confirmPrefix+id+":keep", "intruder"); !handled || allowed {
		t.Fatal("other users must not answer")
	}
	if handled, allowed := c.Answer(confirmPrefix+id+":strip", "u1"); !handled || !allowed {
		t.Fatal("the prompted user should be able to answer")
	}
	keep, ok := c.Wait(context.Background(), id)
	if !ok || keep {
		t.Fatalf("expected strip, got keep=%v ok=%v", keep, ok)
	}
	if handled, _ := c.Answer(confirmPrefix+id+":keep", "u1"); handled {
		t.Fatal("answered prompts should be forgotten")
	}
}

func TestConfirmationsTimeout(t *testing.T) {
	c := NewConfirmations(10 * time.Millisecond)
	id, _ := c.Prompt("u1")
	if _, ok := c.Wait(context.Background(), id); ok {
		t.Fatal("expected a timeout")
	}
	if IsConfirmation("prev_page") || !IsConfirmation(confirmPrefix+id+":keep") {
		t.Fatal("IsConfirmation misclassified a custom id")
	}
}

func TestNormalizeSetting(t *testing.T) {
	tests := []struct {
		key, value, want string
		wantErr          bool
	}{
		{key: models.SettingSubmissionChannel, value: "<#123456789>", want: "123456789"},
		{key: models.SettingShowcaseCategory, value: "987", want: "987"},
		{key: models.SettingSubmissionChannel, value: "general", wantErr: true},
		{key: models.SettingMinLength, value: "60", want: "60"},
		{key: models.SettingMaxLength, value: "-1", wantErr: true},
		{key: models.SettingRateLimitMode, value: "TRUE", want: "true"},
		{key: models.SettingRateLimitMode, value: "sometimes", wantErr: true},
		{key: models.SettingFeedSource, value: "r/videos", want: "videos"},
		{key: models.SettingMinLength, value: "", want: ""},
		{key: "prefix", value: "!", wantErr: true},
	}
	for _, tt := range tests {
		got, err := normalizeSetting(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Fatalf("normalizeSetting(%q, %q) error = %v", tt.key, tt.value, err)
		}
		if got != tt.want {
			t.Fatalf("normalizeSetting(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSettingChoices(t *testing.T) {
	cfg := models.GuildConfig{Settings: map[string]string{models.SettingMinLength: "30"}}
	choices := settingChoices(cfg, "length")
	if len(choices) != 2 {
		t.Fatalf("expected min and max length, got %d", len(choices))
	}
	if choices[0].Name != "min_length (current: 30)" || choices[0].Value != models.SettingMinLength {
		t.Fatalf("unexpected choice %+v", choices[0])
	}
}

func TestDropSubmissionRemovesOnlyActiveMatch(t *testing.T) {
	h, store, _, _, safety := newTestHandler()
	store.submissions = []models.VideoSubmission{
		{ID: 1, ChannelID: "firehose", MessageID: "m1", Active: true},
		{ID: 2, ChannelID: "firehose", MessageID: "m2", Active: false},
	}

	h.dropSubmission(context.Background(), "g1", "firehose", "m1")
	h.dropSubmission(context.Background(), "g1", "firehose", "m2")

	if len(store.submissions) != 1 || store.submissions[0].ID != 2 {
		t.Fatalf("unexpected submissions left: %+v", store.submissions)
	}
	if len(safety.entries) != 0 {
		t.Fatalf("unexpected safety log entries: %v", safety.entries)
	}
}

func TestDropSubmissionLogsStoreFailure(t *testing.T) {
	h, store, _, _, safety := newTestHandler()
	store.deleteErr = errors.New("disk full")

	h.dropSubmission(context.Background(), "g1", "firehose", "m1")

	if len(safety.entries) != 1 || safety.entries[0] != utils.LevelError+":Submission cleanup failed" {
		t.Fatalf("expected one error entry, got %v", safety.entries)
	}
}

// recordingResolver captures the texts handed to Resolve and finds nothing.
type recordingResolver struct{ texts []string }

func (r *recordingResolver) Resolve(texts ...string) []videoref.Reference {
	r.texts = append(r.texts, texts...)
	return nil
}

func (r *recordingResolver) Parse(string) (videoref.Reference, bool) {
	return videoref.Reference{}, false
}

func TestMessageCreateResolvesEmbedFields(t *testing.T) {
	h, store, _, _, _ := newTestHandler()
	store.settings = map[string]string{models.SettingSubmissionChannel: "subs"}
	resolver := &recordingResolver{}
	h.resolver = resolver

	link := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	h.MessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		GuildID:   "g1",
		ChannelID: "subs",
		Content:   "look at this",
		Author:    &discordgo.User{ID: "u1"},
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "title " + link + "&a",
			Description: "desc " + link + "&b",
			Author:      &discordgo.MessageEmbedAuthor{URL: link + "&c"},
			Video:       &discordgo.MessageEmbedVideo{URL: link + "&d"},
			Fields:      []*discordgo.MessageEmbedField{{Name: "n", Value: link + "&e"}},
		}},
	}})

	joined := strings.Join(resolver.texts, "\n")
	for _, want := range []string{"look at this", "&a", "&b", "&c", "&d", "&e"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("resolver did not receive %q; got %q", want, resolver.texts)
		}
	}
}

func TestMessageCreateIgnoresOtherChannels(t *testing.T) {
	h, store, _, _, _ := newTestHandler()
	store.settings = map[string]string{models.SettingSubmissionChannel: "subs"}
	resolver := &recordingResolver{}
	h.resolver = resolver

	h.MessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID: "g1", ChannelID: "general", Content: "https://youtu.be/dQw4w9WgXcQ",
		Author: &discordgo.User{ID: "u1"},
	}})
	if len(resolver.texts) != 0 {
		t.Fatalf("expected no resolution outside the submission channel, got %q", resolver.texts)
	}
}
