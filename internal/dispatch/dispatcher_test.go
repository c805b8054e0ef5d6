package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mrwillibald/nuliga-helper/internal/config"
	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/logger"
	"github.com/mrwillibald/nuliga-helper/internal/notifier"
)

const testConfig = `
club:
  name: HC Musterstadt
  id: "12345"
  halls: ["07011"]
mail:
  smtp_host: smtp.x.test
  default:
    name: Heimspiele
    address: heimspiele@x.test
  service:
    name: Verkauf
    address: verkauf@x.test
  operator:
    name: Manu
    contact: manu@x.test
referee_coordinators:
  - name: Sepp
    contact: sepp@x.test
  - name: Vroni
    contact: "+4917012345678"
newspaper:
  enabled: true
  name: Anzeiger
  address: sport@anzeiger.test
texts:
  task:
    subject: "Dienst {2}"
    mail: "Hallo {0}: {1} {2} {3} {4} - {5} {6}"
    sms: "SMS {0}: {2} um {6}"
  pre_task:
    subject: "Vorschau {2}"
    mail: "Vorschau {0}: {1} {2}"
  liaison:
    subject: "MV {2}"
    mail: "Hallo {0}: {1} stellt {3} und {4} am {2} ({5} {6} - {7} {8})"
  service:
    subject: "Vorbereitung {2}"
    mail: "Hallo {0}: {2} mit {6} um {7}"
  referee:
    subject: "Schiedsrichter {1}"
    mail: "Hallo {0}: {1}\n{2}an {3}"
  shift:
    subject: "Verlegung {1}"
    mail: "Hallo {0}: {2} {3} - {4} von {5} {6} auf {7} {8}"
  newspaper:
    subject: "Heimspiele {2}"
    mail: "Ausgabe {0}, {1} {2}:\n{3}"
  unmatched:
    subject: "Spielnummer fehlt"
    mail: "Fehlend: {0}"
`

type fakeMailer struct {
	sent []notifier.Mail
	fail map[string]bool
}

func (f *fakeMailer) Send(ctx context.Context, m notifier.Mail) error {
	if f.fail[m.ToAddr] {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) to(addr string) []notifier.Mail {
	var out []notifier.Mail
	for _, m := range f.sent {
		if m.ToAddr == addr {
			out = append(out, m)
		}
	}
	return out
}

type sentSMS struct {
	to, body string
}

type fakeSMS struct {
	sent []sentSMS
}

func (f *fakeSMS) Send(ctx context.Context, to, body string) error {
	f.sent = append(f.sent, sentSMS{to: to, body: body})
	return nil
}

type harness struct {
	d       *Dispatcher
	mail    *fakeMailer
	service *fakeMailer
	sms     *fakeSMS
	logs    *bytes.Buffer
	metrics *logger.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.Parse([]byte(testConfig))
	if err != nil {
		t.Fatalf("parsing test config: %v", err)
	}

	h := &harness{
		mail:    &fakeMailer{},
		service: &fakeMailer{},
		sms:     &fakeSMS{},
		logs:    &bytes.Buffer{},
		metrics: logger.NewMetrics(),
	}
	h.d = New(cfg, h.mail,
		WithServiceMailer(h.service),
		WithSMS(h.sms),
		WithLogger(logger.New(logger.LevelDebug, h.logs)),
		WithMetrics(h.metrics),
	)
	return h
}

func assign(rec *game.Record, role game.Role, name, contact string) {
	rec.Assign(role, game.Assignment{Name: name, Contact: game.ParseContact(contact)})
}

func homeGame(number int, date, time, category string) game.Record {
	return game.Record{
		Number: number, Day: "Sa.", Date: date, Time: time, Hall: "07011",
		Category: category, Home: "HC Musterstadt", Guest: "TSV Gast", RefereeStatus: "covered",
	}
}

func TestTaskReminders(t *testing.T) {
	h := newHarness(t)

	rec := homeGame(101, "01.05.2025", "18:00", "M")
	rec.DutyTeam = "Herren 2"
	assign(&rec, game.RoleLiaison, "Manu", "manu@x.test")
	assign(&rec, game.RoleJudge1, "Alice", "alice@x.test")
	assign(&rec, game.RoleJudge2, "Bob", "+49 170 1111111")
	assign(&rec, game.RoleSecurity, "Carl", "")

	other := homeGame(102, "02.05.2025", "18:00", "F")
	assign(&other, game.RoleJudge1, "Zoe", "zoe@x.test")

	tally := h.d.TaskReminders(context.Background(), game.Table{rec, other}, "01.05.2025")

	if tally.Sent != 3 || tally.Skipped != 4 || tally.Failed != 0 {
		t.Errorf("tally = %+v, want 3 sent, 4 skipped", tally)
	}

	alice := h.mail.to("alice@x.test")
	if len(alice) != 1 {
		t.Fatalf("expected one mail to alice, got %d", len(alice))
	}
	if alice[0].Subject != "Dienst Kampfgericht 1" {
		t.Errorf("subject = %q", alice[0].Subject)
	}
	if alice[0].Body != "Hallo Alice: 01.05.2025 Kampfgericht 1 M HC Musterstadt - TSV Gast 18:00" {
		t.Errorf("body = %q", alice[0].Body)
	}

	liaison := h.mail.to("manu@x.test")
	if len(liaison) != 1 {
		t.Fatalf("expected one mail to the liaison, got %d", len(liaison))
	}
	if liaison[0].Body != "Hallo Manu: Herren 2 stellt Alice und Bob am 01.05.2025 (M HC Musterstadt - TSV Gast 18:00)" {
		t.Errorf("liaison body = %q", liaison[0].Body)
	}

	if len(h.sms.sent) != 1 {
		t.Fatalf("expected one SMS, got %d", len(h.sms.sent))
	}
	if h.sms.sent[0].to != "+491701111111" || h.sms.sent[0].body != "SMS Bob: Kampfgericht 2 um 18:00" {
		t.Errorf("sms = %+v", h.sms.sent[0])
	}

	if len(h.mail.to("zoe@x.test")) != 0 {
		t.Error("game on another date must not be notified")
	}
	if h.metrics.Counter("dispatch.email") != 2 || h.metrics.Counter("dispatch.sms") != 1 {
		t.Errorf("counters: email=%d sms=%d", h.metrics.Counter("dispatch.email"), h.metrics.Counter("dispatch.sms"))
	}
}

func TestTaskReminders_EmptyContactWarns(t *testing.T) {
	h := newHarness(t)

	rec := homeGame(101, "01.05.2025", "18:00", "M")
	assign(&rec, game.RoleJudge1, "Alice", "")
	assign(&rec, game.RoleJudge2, "Bob", "bob@x.test")

	tally := h.d.TaskReminders(context.Background(), game.Table{rec}, "01.05.2025")

	if len(h.mail.to("bob@x.test")) != 1 {
		t.Error("remaining recipients must still be notified")
	}
	if tally.Sent != 1 {
		t.Errorf("Sent = %d, want 1", tally.Sent)
	}

	logs := h.logs.String()
	if !strings.Contains(logs, `"level":"WARN"`) || !strings.Contains(logs, "No valid phone number or email address") {
		t.Errorf("expected warning in logs:\n%s", logs)
	}
	if !strings.Contains(logs, `"name":"Alice"`) || !strings.Contains(logs, `"game":101`) {
		t.Errorf("warning must name the game and recipient:\n%s", logs)
	}
}

func TestTaskReminders_SkipsByes(t *testing.T) {
	h := newHarness(t)

	bye := homeGame(0, "01.05.2025", "", "M")
	bye.Guest = game.ByeMarker
	assign(&bye, game.RoleJudge1, "Alice", "alice@x.test")

	tally := h.d.TaskReminders(context.Background(), game.Table{bye}, "01.05.2025")
	if tally != (Tally{}) || len(h.mail.sent) != 0 {
		t.Errorf("bye must not be notified, tally = %+v", tally)
	}
}

func TestDeliver_TransportFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.mail.fail = map[string]bool{"alice@x.test": true}

	rec := homeGame(101, "01.05.2025", "18:00", "M")
	assign(&rec, game.RoleJudge1, "Alice", "alice@x.test")
	assign(&rec, game.RoleJudge2, "Bob", "bob@x.test")

	tally := h.d.TaskReminders(context.Background(), game.Table{rec}, "01.05.2025")

	if tally.Failed != 1 || tally.Sent != 1 {
		t.Errorf("tally = %+v, want 1 failed, 1 sent", tally)
	}
	if len(h.mail.to("bob@x.test")) != 1 {
		t.Error("failure for one recipient must not stop the others")
	}
	if h.metrics.Counter("dispatch.failed") != 1 {
		t.Errorf("dispatch.failed = %d", h.metrics.Counter("dispatch.failed"))
	}
	if !strings.Contains(h.logs.String(), "connection refused") {
		t.Error("transport error must be logged")
	}
}

func TestDeliver_NoSMSTransport(t *testing.T) {
	cfg, err := config.Parse([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	mail := &fakeMailer{}
	d := New(cfg, mail, WithLogger(logger.New(logger.LevelError, &bytes.Buffer{})), WithMetrics(logger.NewMetrics()))

	rec := homeGame(101, "01.05.2025", "18:00", "M")
	assign(&rec, game.RoleJudge1, "Bob", "+4917011111111")

	tally := d.TaskReminders(context.Background(), game.Table{rec}, "01.05.2025")
	if tally.Sent != 0 || tally.Skipped != 7 {
		t.Errorf("tally = %+v, want everything skipped", tally)
	}
}

func TestPreTaskReminders_SkipsFirstGameConcession(t *testing.T) {
	h := newHarness(t)

	first := homeGame(101, "08.05.2025", "14:00", "mJC")
	assign(&first, game.RoleConcession1, "Carol", "carol@x.test")
	assign(&first, game.RoleJudge1, "Alice", "alice@x.test")

	second := homeGame(102, "08.05.2025", "16:00", "M")
	assign(&second, game.RoleConcession1, "Dave", "dave@x.test")

	tally := h.d.PreTaskReminders(context.Background(), game.Table{first, second}, "08.05.2025")

	if len(h.mail.to("carol@x.test")) != 0 {
		t.Error("concession of the first game is covered by the service pre-notice")
	}
	if len(h.mail.to("dave@x.test")) != 1 {
		t.Error("concession of later games gets the pre-task reminder")
	}
	if len(h.mail.to("alice@x.test")) != 1 {
		t.Error("judges of the first game get the pre-task reminder")
	}
	// first game: 5 roles, second game: 7 roles
	if tally.Sent+tally.Skipped != 12 {
		t.Errorf("tally = %+v, want 12 recipients", tally)
	}
	if got := h.mail.to("dave@x.test")[0].Subject; got != "Vorschau Verkauf 1" {
		t.Errorf("subject = %q", got)
	}
}

func TestServicePreNotice(t *testing.T) {
	h := newHarness(t)

	first := homeGame(101, "08.05.2025", "14:00", "mJC")
	assign(&first, game.RoleConcession1, "Carol", "carol@x.test")
	assign(&first, game.RoleConcession2, "Dave", "+4917022222222")

	second := homeGame(102, "08.05.2025", "16:00", "M")
	assign(&second, game.RoleConcession1, "Eve", "eve@x.test")

	tally := h.d.ServicePreNotice(context.Background(), game.Table{first, second}, "08.05.2025")

	if tally.Sent != 2 {
		t.Errorf("tally = %+v, want 2 sent", tally)
	}
	if len(h.mail.sent) != 0 {
		t.Error("service pre-notice must use the service mailbox")
	}

	carol := h.service.to("carol@x.test")
	if len(carol) != 1 {
		t.Fatalf("expected one mail to carol, got %d", len(carol))
	}
	if carol[0].Body != "Hallo Carol: Verkauf 1 mit Dave um 14:00" {
		t.Errorf("body = %q", carol[0].Body)
	}
	if len(h.service.to("eve@x.test")) != 0 {
		t.Error("only the first game of the day gets the pre-notice")
	}

	if len(h.sms.sent) != 1 || h.sms.sent[0].to != "+4917022222222" {
		t.Fatalf("expected one SMS to Dave, got %+v", h.sms.sent)
	}
	// the service template has no SMS variant, the mail body is used
	if h.sms.sent[0].body != "Hallo Dave: Verkauf 2 mit Carol um 14:00" {
		t.Errorf("sms body = %q", h.sms.sent[0].body)
	}
}

func TestServicePreNotice_NoGames(t *testing.T) {
	h := newHarness(t)

	tally := h.d.ServicePreNotice(context.Background(), game.Table{homeGame(101, "01.05.2025", "14:00", "M")}, "08.05.2025")
	if tally != (Tally{}) {
		t.Errorf("tally = %+v, want nothing sent", tally)
	}
}

func TestRefereeCoordinatorAlert(t *testing.T) {
	h := newHarness(t)

	a := homeGame(101, "01.05.2025", "14:00", "mJC")
	a.RefereeStatus = "Heim"
	b := homeGame(102, "01.05.2025", "16:00", "wJB")
	b.RefereeStatus = "SR: Heim-Verein"
	c := homeGame(103, "01.05.2025", "18:00", "M")

	tally := h.d.RefereeCoordinatorAlert(context.Background(), game.Table{a, b, c}, "01.05.2025")

	if tally.Sent != 2 {
		t.Errorf("tally = %+v, want one message per coordinator", tally)
	}

	sepp := h.mail.to("sepp@x.test")
	if len(sepp) != 1 {
		t.Fatalf("expected one mail to Sepp, got %d", len(sepp))
	}
	want := "Hallo Sepp: 01.05.2025\nmJC um 14:00\nwJB um 16:00\nan Sepp, Vroni"
	if sepp[0].Body != want {
		t.Errorf("body = %q, want %q", sepp[0].Body, want)
	}
	if sepp[0].Subject != "Schiedsrichter 01.05.2025" {
		t.Errorf("subject = %q", sepp[0].Subject)
	}

	if len(h.sms.sent) != 1 || h.sms.sent[0].to != "+4917012345678" {
		t.Errorf("expected SMS to Vroni, got %+v", h.sms.sent)
	}
}

func TestRefereeCoordinatorAlert_NothingNeeded(t *testing.T) {
	h := newHarness(t)

	tally := h.d.RefereeCoordinatorAlert(context.Background(), game.Table{homeGame(101, "01.05.2025", "14:00", "M")}, "01.05.2025")
	if tally != (Tally{}) || len(h.mail.sent) != 0 {
		t.Errorf("no alert expected, tally = %+v", tally)
	}
}

func TestShiftAlert(t *testing.T) {
	h := newHarness(t)

	persisted := homeGame(101, "01.05.2025", "18:00", "M")
	assign(&persisted, game.RoleJudge1, "Alice", "alice@x.test")

	scraped := homeGame(101, "02.05.2025", "18:00", "M")

	result, err := game.Reconcile(game.Table{scraped}, game.Table{persisted})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	shifts := result.Of(game.ChangeScheduleShift)
	if len(shifts) != 1 {
		t.Fatalf("expected one shift, got %+v", result.Changes)
	}

	rec, _ := result.Merged.Lookup(101)
	tally := h.d.ShiftAlert(context.Background(), rec, shifts[0])

	alice := h.mail.to("alice@x.test")
	if len(alice) != 1 {
		t.Fatalf("expected one shift alert to alice, got %d", len(alice))
	}
	if alice[0].Body != "Hallo Alice: M HC Musterstadt - TSV Gast von 01.05.2025 18:00 auf 02.05.2025 18:00" {
		t.Errorf("body = %q", alice[0].Body)
	}
	if alice[0].Subject != "Verlegung Kampfgericht 1" {
		t.Errorf("subject = %q", alice[0].Subject)
	}
	if tally.Sent != 1 || tally.Skipped != 6 {
		t.Errorf("tally = %+v, want 1 sent, 6 skipped", tally)
	}
	if !strings.Contains(h.logs.String(), `"to":"al***@x.test"`) {
		t.Errorf("send must be logged with a masked address:\n%s", h.logs.String())
	}
}

func TestNewspaperDigest(t *testing.T) {
	h := newHarness(t)

	mini1 := homeGame(201, "10.05.2025", "10:00 t", "MI")
	mini2 := homeGame(202, "10.05.2025", "10:30", "MI")
	mixed := homeGame(203, "10.05.2025", "11:00", "GE")
	women := homeGame(204, "10.05.2025", "14:00 v", "F")
	youth := homeGame(205, "10.05.2025", "16:00", "mJC")
	bye := homeGame(0, "10.05.2025", "", "M")
	bye.Guest = game.ByeMarker

	tally := h.d.NewspaperDigest(context.Background(), game.Table{mini1, mini2, mixed, women, youth, bye}, "10.05.2025", "Samstag", "09.05.2025")

	if tally.Sent != 1 {
		t.Fatalf("tally = %+v, want one article", tally)
	}
	paper := h.mail.to("sport@anzeiger.test")
	if len(paper) != 1 {
		t.Fatalf("expected one mail to the newspaper, got %d", len(paper))
	}

	want := "Ausgabe 09.05.2025, Samstag 10.05.2025:\n" +
		"Ab 10:00 Spielfest der Minis\n" +
		"Ab 11:00 Turnier der gemischten E-Jugend\n" +
		"14:00 Damen HC Musterstadt - TSV Gast\n" +
		"16:00 mJC HC Musterstadt - TSV Gast\n"
	if paper[0].Body != want {
		t.Errorf("body =\n%s\nwant\n%s", paper[0].Body, want)
	}
	if paper[0].ToName != "Anzeiger" {
		t.Errorf("ToName = %q", paper[0].ToName)
	}
}

func TestNewspaperDigest_NoGames(t *testing.T) {
	h := newHarness(t)

	tally := h.d.NewspaperDigest(context.Background(), game.Table{}, "10.05.2025", "Samstag", "09.05.2025")
	if tally != (Tally{}) || len(h.mail.sent) != 0 {
		t.Errorf("no article expected, tally = %+v", tally)
	}
}

func TestUnmatchedReport(t *testing.T) {
	h := newHarness(t)

	tally := h.d.UnmatchedReport(context.Background(), []int{101, 105})
	if tally.Sent != 1 {
		t.Fatalf("tally = %+v", tally)
	}

	op := h.mail.to("manu@x.test")
	if len(op) != 1 || op[0].Body != "Fehlend: 101, 105" {
		t.Errorf("operator mail = %+v", op)
	}

	if got := h.d.UnmatchedReport(context.Background(), nil); got != (Tally{}) {
		t.Errorf("no report expected for an empty list, got %+v", got)
	}
}

func TestTally_Add(t *testing.T) {
	total := Tally{Sent: 1}
	total.Add(Tally{Sent: 2, Skipped: 1, Failed: 3})

	if total != (Tally{Sent: 3, Skipped: 1, Failed: 3}) {
		t.Errorf("Add() = %+v", total)
	}
}
