package syncengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/voyago/tripsync/internal/gateway"
)

// fakeGateway is an in-memory stand-in for the remote API. Child records
// are keyed by their parent's server id, like the real server.
type fakeGateway struct {
	mu     sync.Mutex
	nextID int

	trips        []gateway.Trip
	participants map[string][]gateway.Participant
	itinerary    map[string][]gateway.ItineraryItem
	messages     map[string][]gateway.Message
	expenses     map[string][]gateway.Expense
	splits       map[string][]gateway.ExpenseSplit
	documents    map[string][]gateway.Document

	// rejectTrip makes CreateTrip fail for matching payloads.
	rejectTrip func(gateway.Trip) bool

	// createCalls counts every create attempt across entity types.
	createCalls int

	// blockList, when set, makes ListTrips wait until the channel closes;
	// listStarted signals that the wait began.
	blockList   chan struct{}
	listStarted chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		participants: make(map[string][]gateway.Participant),
		itinerary:    make(map[string][]gateway.ItineraryItem),
		messages:     make(map[string][]gateway.Message),
		expenses:     make(map[string][]gateway.Expense),
		splits:       make(map[string][]gateway.ExpenseSplit),
		documents:    make(map[string][]gateway.Document),
	}
}

func (g *fakeGateway) assign() string {
	g.nextID++
	return fmt.Sprintf("srv-%d", g.nextID)
}

func ok() gateway.Status { return gateway.Status{OK: true} }

func (g *fakeGateway) CreateTrip(ctx context.Context, t gateway.Trip) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.rejectTrip != nil && g.rejectTrip(t) {
		return gateway.CreateResult{Status: gateway.Fail("trip rejected")}
	}
	t.ID = g.assign()
	g.trips = append(g.trips, t)
	return gateway.CreateResult{Status: ok(), ServerID: t.ID}
}

func (g *fakeGateway) ListTrips(ctx context.Context) gateway.TripsResult {
	if g.blockList != nil {
		close(g.listStarted)
		<-g.blockList
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.TripsResult{Status: ok(), Trips: append([]gateway.Trip(nil), g.trips...)}
}

func (g *fakeGateway) CreateParticipant(ctx context.Context, p gateway.Participant) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	p.ID = g.assign()
	g.participants[p.TripID] = append(g.participants[p.TripID], p)
	return gateway.CreateResult{Status: ok(), ServerID: p.ID}
}

func (g *fakeGateway) ListParticipants(ctx context.Context, tripServerID string) gateway.ParticipantsResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.ParticipantsResult{Status: ok(), Participants: append([]gateway.Participant(nil), g.participants[tripServerID]...)}
}

func (g *fakeGateway) CreateItineraryItem(ctx context.Context, it gateway.ItineraryItem) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	it.ID = g.assign()
	g.itinerary[it.TripID] = append(g.itinerary[it.TripID], it)
	return gateway.CreateResult{Status: ok(), ServerID: it.ID}
}

func (g *fakeGateway) ListItineraryItems(ctx context.Context, tripServerID string) gateway.ItineraryResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.ItineraryResult{Status: ok(), Items: append([]gateway.ItineraryItem(nil), g.itinerary[tripServerID]...)}
}

func (g *fakeGateway) CreateMessage(ctx context.Context, m gateway.Message) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	m.ID = g.assign()
	g.messages[m.TripID] = append(g.messages[m.TripID], m)
	return gateway.CreateResult{Status: ok(), ServerID: m.ID}
}

func (g *fakeGateway) ListMessages(ctx context.Context, tripServerID string) gateway.MessagesResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.MessagesResult{Status: ok(), Messages: append([]gateway.Message(nil), g.messages[tripServerID]...)}
}

func (g *fakeGateway) CreateExpense(ctx context.Context, e gateway.Expense) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	e.ID = g.assign()
	g.expenses[e.TripID] = append(g.expenses[e.TripID], e)
	return gateway.CreateResult{Status: ok(), ServerID: e.ID}
}

func (g *fakeGateway) ListExpenses(ctx context.Context, tripServerID string) gateway.ExpensesResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.ExpensesResult{Status: ok(), Expenses: append([]gateway.Expense(nil), g.expenses[tripServerID]...)}
}

func (g *fakeGateway) CreateExpenseSplit(ctx context.Context, s gateway.ExpenseSplit) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	s.ID = g.assign()
	g.splits[s.ExpenseID] = append(g.splits[s.ExpenseID], s)
	return gateway.CreateResult{Status: ok(), ServerID: s.ID}
}

func (g *fakeGateway) ListExpenseSplits(ctx context.Context, expenseServerID string) gateway.SplitsResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.SplitsResult{Status: ok(), Splits: append([]gateway.ExpenseSplit(nil), g.splits[expenseServerID]...)}
}

func (g *fakeGateway) CreateDocument(ctx context.Context, d gateway.Document) gateway.CreateResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	d.ID = g.assign()
	g.documents[d.TripID] = append(g.documents[d.TripID], d)
	return gateway.CreateResult{Status: ok(), ServerID: d.ID}
}

func (g *fakeGateway) ListDocuments(ctx context.Context, tripServerID string) gateway.DocumentsResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gateway.DocumentsResult{Status: ok(), Documents: append([]gateway.Document(nil), g.documents[tripServerID]...)}
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}
