package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ZanzyTHEbar/helio-assistant/helio/chatlog"
	"github.com/ZanzyTHEbar/helio-assistant/helio/classifier"
	"github.com/ZanzyTHEbar/helio-assistant/helio/export"
	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
	"github.com/ZanzyTHEbar/helio-assistant/helio/history"
)

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) Generate(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(query string) bool {
	return m.Called(query).Bool(0)
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) Add(ctx context.Context, position int, e chatlog.Entry) error {
	return m.Called(ctx, position, e).Error(0)
}

func (m *mockIndex) Search(ctx context.Context, text string, k int) ([]history.Hit, error) {
	args := m.Called(ctx, text, k)
	hits, _ := args.Get(0).([]history.Hit)
	return hits, args.Error(1)
}

func (m *mockIndex) Reset(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockIndex) Close() error                    { return m.Called().Error(0) }

type ControllerTestSuite struct {
	suite.Suite
	ctx       context.Context
	responder *mockResponder
	ctrl      *Controller
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.responder = new(mockResponder)
	s.ctrl = New(classifier.Default(), s.responder)
}

func (s *ControllerTestSuite) TestEmptyInputIsRejected() {
	for _, q := range []string{"", "   ", "\t\n"} {
		out := s.ctrl.Handle(s.ctx, q)
		s.Equal(Rejected, out.Status)
		s.Equal("empty input", out.Reason)
		s.ErrorIs(out.Err, ErrEmptyInput)
	}
	s.Equal(0, s.ctrl.Len())
	s.responder.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *ControllerTestSuite) TestEmptyInputSkipsClassifier() {
	cls := new(mockClassifier)
	ctrl := New(cls, s.responder)

	out := ctrl.Handle(s.ctx, "  ")
	s.Equal(Rejected, out.Status)
	cls.AssertNotCalled(s.T(), "Classify", mock.Anything)
}

func (s *ControllerTestSuite) TestOutOfDomainIsRejected() {
	out := s.ctrl.Handle(s.ctx, "what is the capital of France")
	s.Equal(Rejected, out.Status)
	s.Equal("out of domain", out.Reason)
	s.ErrorIs(out.Err, ErrOutOfDomain)
	s.Equal(0, s.ctrl.Len())
	s.responder.AssertNumberOfCalls(s.T(), "Generate", 0)
}

func (s *ControllerTestSuite) TestAnsweredAppendsOriginalInput() {
	q := "  cost of solar panels?  "
	s.responder.On("Generate", mock.Anything, q).Return("X", nil).Once()

	out := s.ctrl.Handle(s.ctx, q)
	s.Require().Equal(Answered, out.Status)
	s.Equal(chatlog.Entry{Question: q, Answer: "X"}, out.Entry)
	s.NoError(out.Err)
	s.Empty(out.Reason)

	s.Equal(1, s.ctrl.Len())
	e, err := s.ctrl.EntryAt(0)
	s.Require().NoError(err)
	s.Equal(q, e.Question)
	s.responder.AssertExpectations(s.T())
}

func (s *ControllerTestSuite) TestResponderFailureLeavesLogUnchanged() {
	s.responder.On("Generate", mock.Anything, "what is an inverter").
		Return("", &ports.GenerationError{Provider: "gemini", Err: errors.New("timeout")}).Once()
	s.responder.On("Generate", mock.Anything, "pv degradation rate").
		Return("", errors.New("raw transport error")).Once()

	out := s.ctrl.Handle(s.ctx, "what is an inverter")
	s.Equal(Failed, out.Status)
	var ge *ports.GenerationError
	s.Require().ErrorAs(out.Err, &ge)
	s.Equal("gemini", ge.Provider)
	s.Contains(out.Reason, "timeout")

	out = s.ctrl.Handle(s.ctx, "pv degradation rate")
	s.Equal(Failed, out.Status)
	s.Require().ErrorAs(out.Err, &ge)

	s.Equal(0, s.ctrl.Len())
}

func (s *ControllerTestSuite) TestResponderPanicIsFailure() {
	ctrl := New(classifier.Default(), ports.ResponderFunc(func(context.Context, string) (string, error) {
		panic("nil map")
	}))

	out := ctrl.Handle(s.ctx, "solar")
	s.Equal(Failed, out.Status)
	var ge *ports.GenerationError
	s.Require().ErrorAs(out.Err, &ge)
	s.Contains(out.Reason, "nil map")
	s.Equal(0, ctrl.Len())
}

func (s *ControllerTestSuite) TestConcreteScenario() {
	s.responder.On("Generate", mock.Anything, "cost of solar panels?").Return("X", nil).Once()

	first := s.ctrl.Handle(s.ctx, "cost of solar panels?")
	second := s.ctrl.Handle(s.ctx, "capital of France?")

	s.Equal(Answered, first.Status)
	s.Equal(Rejected, second.Status)
	s.Equal(1, s.ctrl.Len())
	e, err := s.ctrl.EntryAt(0)
	s.Require().NoError(err)
	s.Equal("cost of solar panels?", e.Question)
	s.responder.AssertNumberOfCalls(s.T(), "Generate", 1)
}

func (s *ControllerTestSuite) TestOrdering() {
	s.responder.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)
	for _, q := range []string{"solar A", "solar B", "solar C"} {
		s.Require().Equal(Answered, s.ctrl.Handle(s.ctx, q).Status)
	}

	var forward, backward []string
	for _, e := range s.ctrl.Entries() {
		forward = append(forward, e.Question)
	}
	for _, e := range s.ctrl.Recent() {
		backward = append(backward, e.Question)
	}
	s.Equal([]string{"solar A", "solar B", "solar C"}, forward)
	s.Equal([]string{"solar C", "solar B", "solar A"}, backward)
}

func (s *ControllerTestSuite) TestEntryAtOutOfRange() {
	_, err := s.ctrl.EntryAt(0)
	s.ErrorIs(err, chatlog.ErrOutOfRange)
}

func (s *ControllerTestSuite) TestExportImportRoundTrip() {
	s.responder.On("Generate", mock.Anything, mock.Anything).Return("answer", nil)
	s.ctrl.Handle(s.ctx, "solar one")
	s.ctrl.Handle(s.ctx, "solar two")

	doc := s.ctrl.Export()
	other := New(classifier.Default(), s.responder)
	other.Import(s.ctx, doc)

	s.Equal(s.ctrl.Entries(), other.Entries())
	s.Equal(s.ctrl.Entries(), export.Import(doc).Entries())
}

func (s *ControllerTestSuite) TestResetAndFallbackSearch() {
	s.responder.On("Generate", mock.Anything, mock.Anything).Return("about net metering", nil)
	s.ctrl.Handle(s.ctx, "solar credits")
	s.ctrl.Handle(s.ctx, "inverter sizing")

	hits, err := s.ctrl.Search(s.ctx, "INVERTER", 5)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal(1, hits[0].Position)

	hits, err = s.ctrl.Search(s.ctx, "net metering", 1)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal(1, hits[0].Position, "newest first")

	s.ctrl.Reset(s.ctx)
	s.Equal(0, s.ctrl.Len())
	hits, err = s.ctrl.Search(s.ctx, "inverter", 5)
	s.NoError(err)
	s.Empty(hits)
	s.NoError(s.ctrl.Close())
}

func (s *ControllerTestSuite) TestSessionIDsAreUnique() {
	other := New(classifier.Default(), s.responder)
	s.NotEmpty(s.ctrl.ID())
	s.NotEqual(s.ctrl.ID(), other.ID())
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func TestController_HistoryIndex(t *testing.T) {
	ctx := context.Background()
	idx := new(mockIndex)
	responder := ports.ResponderFunc(func(_ context.Context, q string) (string, error) {
		return "re: " + q, nil
	})
	ctrl := New(classifier.Default(), responder, WithHistory(idx))

	idx.On("Add", mock.Anything, 0, chatlog.Entry{Question: "solar", Answer: "re: solar"}).Return(nil).Once()
	idx.On("Add", mock.Anything, 1, chatlog.Entry{Question: "pv", Answer: "re: pv"}).Return(errors.New("disk full")).Once()
	idx.On("Search", mock.Anything, "pv", 3).Return([]history.Hit{{Position: 1}}, nil).Once()
	idx.On("Reset", mock.Anything).Return(nil).Once()
	idx.On("Close").Return(nil).Once()

	assert.Equal(t, Answered, ctrl.Handle(ctx, "solar").Status)
	// Index failures do not affect the outcome.
	assert.Equal(t, Answered, ctrl.Handle(ctx, "pv").Status)
	assert.Equal(t, 2, ctrl.Len())

	hits, err := ctrl.Search(ctx, "pv", 3)
	require.NoError(t, err)
	assert.Equal(t, []history.Hit{{Position: 1}}, hits)

	ctrl.Reset(ctx)
	require.NoError(t, ctrl.Close())
	idx.AssertExpectations(t)
}

func TestController_WithLog(t *testing.T) {
	log := chatlog.New()
	log.Append("earlier solar question", "earlier answer")

	ctrl := New(classifier.Default(), ports.ResponderFunc(func(context.Context, string) (string, error) {
		return "new", nil
	}), WithLog(log))

	ctrl.Handle(context.Background(), "pv question")
	assert.Equal(t, 2, ctrl.Len())
	assert.Equal(t, 2, log.Len())
}

func TestController_ExportDuringHandle(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	responder := ports.ResponderFunc(func(context.Context, string) (string, error) {
		close(started)
		<-release
		return "slow answer", nil
	})
	ctrl := New(classifier.Default(), responder)

	done := make(chan Outcome)
	go func() { done <- ctrl.Handle(ctx, "solar roof") }()

	<-started
	snapshot := ctrl.Export()
	assert.Empty(t, snapshot)
	assert.Equal(t, 0, ctrl.Len())

	close(release)
	out := <-done
	assert.Equal(t, Answered, out.Status)
	assert.Empty(t, snapshot, "earlier snapshot is not aliased to the log")
	assert.Len(t, ctrl.Export(), 1)
}

func TestController_HandleIsSerialized(t *testing.T) {
	ctx := context.Background()
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	responder := ports.ResponderFunc(func(_ context.Context, q string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return q, nil
	})
	ctrl := New(classifier.Default(), responder)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctrl.Handle(ctx, fmt.Sprintf("solar %d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 10, ctrl.Len())
	for i, e := range ctrl.Entries() {
		assert.Equal(t, e.Question, e.Answer, "entry %d", i)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "answered", Answered.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Status(9).String())
}
