// Package calculator implements the expense splitting and balance math.
// All amounts are integer minor currency units (cents).
package calculator

import (
	"sort"

	"github.com/voyago/tripsync/internal/models"
)

// EqualShares splits totalMinor across n shares so the shares sum exactly
// to the total. The remainder cents go to the first shares, so a 10.00
// split three ways yields 3.34, 3.33, 3.33.
func EqualShares(totalMinor int64, n int) []int64 {
	if n <= 0 {
		return nil
	}

	base := totalMinor / int64(n)
	rem := totalMinor % int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < rem {
			shares[i]++
		}
	}
	return shares
}

// Balance is one participant's position across a trip's expenses.
type Balance struct {
	// ParticipantID is the local id of the participant.
	ParticipantID string

	// Paid is the sum of expenses this participant paid for.
	Paid int64

	// Owed is the sum of this participant's shares across all expenses.
	Owed int64

	// Net is Paid - Owed: positive means the group owes this
	// participant, negative means they owe the group.
	Net int64
}

// NetBalances computes per-participant balances from a trip's expenses and
// their splits. Expenses or splits without a participant reference (not
// yet resolvable from a pull) are skipped. Results are sorted by
// participant id for stable output.
func NetBalances(expenses []models.Expense, splits []models.ExpenseSplit) []Balance {
	paid := make(map[string]int64)
	owed := make(map[string]int64)

	for _, e := range expenses {
		if e.PaidByID == "" {
			continue
		}
		paid[e.PaidByID] += e.Amount
	}
	for _, sp := range splits {
		if sp.ParticipantID == "" || sp.Settled {
			continue
		}
		owed[sp.ParticipantID] += sp.Amount
	}

	ids := make(map[string]struct{}, len(paid)+len(owed))
	for id := range paid {
		ids[id] = struct{}{}
	}
	for id := range owed {
		ids[id] = struct{}{}
	}

	balances := make([]Balance, 0, len(ids))
	for id := range ids {
		balances = append(balances, Balance{
			ParticipantID: id,
			Paid:          paid[id],
			Owed:          owed[id],
			Net:           paid[id] - owed[id],
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].ParticipantID < balances[j].ParticipantID
	})
	return balances
}
