package interest

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"lendx/internal/core"
)

func TestTwoWeekScenario(t *testing.T) {
	b := borrower("10", core.MethodCompound)
	txs := []core.Transaction{taken("t1", d(2024, 1, 1), "1000")}
	asOf := d(2024, 1, 15)

	simple := Simple(b, txs, asOf)
	assertDec(t, "simple principal", simple.Principal, "1000")
	assertDec(t, "simple interest", simple.TotalInterest, "200")
	assertDec(t, "simple total", simple.TotalAmount, "1200")
	if simple.Breakdown != nil {
		t.Fatalf("simple should have no breakdown")
	}

	repay := SimpleWithRepayment(b, txs, asOf)
	assertDec(t, "repay principal", repay.Principal, "1000")
	assertDec(t, "repay interest", repay.TotalInterest, "200")
	assertDec(t, "repay total", repay.TotalAmount, "1200")

	comp := Compound(b, txs, asOf)
	if len(comp.Breakdown) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(comp.Breakdown))
	}
	wantBalances := []string{"1100", "1210", "1331"}
	for i, w := range comp.Breakdown {
		if w.Week != i+1 {
			t.Fatalf("week %d numbered %d", i, w.Week)
		}
		assertDec(t, "week balance", w.Balance, wantBalances[i])
	}
	if got := comp.Breakdown[2].StartDate.String(); got != "2024-01-15" {
		t.Fatalf("third week starts %s", got)
	}
	if got := comp.Breakdown[2].EndDate.String(); got != "2024-01-21" {
		t.Fatalf("third week ends %s", got)
	}
	assertDec(t, "compound principal", comp.Principal, "1000")
	assertDec(t, "compound interest", comp.TotalInterest, "331")
	assertDec(t, "compound total", comp.TotalAmount, "1331")
}

func TestSameDayAsOf(t *testing.T) {
	b := borrower("10", core.MethodSimple)
	txs := []core.Transaction{taken("t1", d(2024, 3, 6), "1000")}
	asOf := d(2024, 3, 6)

	for name, res := range map[string]Result{
		"simple": Simple(b, txs, asOf),
		"repay":  SimpleWithRepayment(b, txs, asOf),
	} {
		assertDec(t, name+" interest", res.TotalInterest, "0")
		assertDec(t, name+" total", res.TotalAmount, "1000")
		assertDec(t, name+" principal", res.Principal, "1000")
	}

	// The compound sweep always accrues the as-of week itself.
	comp := Compound(b, txs, asOf)
	if len(comp.Breakdown) != 1 {
		t.Fatalf("expected a single week, got %d", len(comp.Breakdown))
	}
	assertDec(t, "compound principal", comp.Principal, "1000")
	assertDec(t, "compound interest", comp.TotalInterest, "100")
	assertDec(t, "compound total", comp.TotalAmount, "1100")
}

func TestEmptyLedger(t *testing.T) {
	b := borrower("10", core.MethodSimple)
	asOf := d(2024, 1, 1)
	for _, calc := range []Calculator{Simple, SimpleWithRepayment, Compound} {
		res := calc(b, nil, asOf)
		assertDec(t, string(res.Method)+" principal", res.Principal, "0")
		assertDec(t, string(res.Method)+" interest", res.TotalInterest, "0")
		assertDec(t, string(res.Method)+" total", res.TotalAmount, "0")
	}
	if comp := Compound(b, nil, asOf); comp.Breakdown == nil || len(comp.Breakdown) != 0 {
		t.Fatalf("compound should return an empty, non-nil breakdown")
	}
}

func TestRepaymentInsideWeekAccruesNothing(t *testing.T) {
	b := borrower("10", core.MethodSimpleWithRepay)
	txs := []core.Transaction{
		returned("r", d(2024, 1, 4), "1000"),
		taken("t", d(2024, 1, 1), "1000"),
	}
	res := SimpleWithRepayment(b, txs, d(2024, 1, 11))
	assertDec(t, "interest", res.TotalInterest, "0")
	assertDec(t, "total", res.TotalAmount, "0")
	assertDec(t, "principal", res.Principal, "0")
}

func TestSimpleIgnoresRepaymentTiming(t *testing.T) {
	txs := []core.Transaction{
		taken("t", d(2024, 1, 1), "1000"),
		returned("r", d(2024, 1, 8), "400"),
	}
	asOf := d(2024, 1, 29)

	simple := Simple(borrower("10", core.MethodSimple), txs, asOf)
	assertDec(t, "simple principal", simple.Principal, "1000")
	assertDec(t, "simple interest", simple.TotalInterest, "240")
	assertDec(t, "simple total", simple.TotalAmount, "840")

	repay := SimpleWithRepayment(borrower("10", core.MethodSimpleWithRepay), txs, asOf)
	assertDec(t, "repay principal", repay.Principal, "600")
	assertDec(t, "repay interest", repay.TotalInterest, "280")
	assertDec(t, "repay total", repay.TotalAmount, "880")
}

func TestFutureTransactionsAreExcluded(t *testing.T) {
	b := borrower("10", core.MethodSimple)
	txs := []core.Transaction{
		taken("t1", d(2024, 1, 1), "1000"),
		taken("later", d(2024, 2, 1), "500"),
	}
	asOf := d(2024, 1, 15)

	assertDec(t, "simple", Simple(b, txs, asOf).TotalAmount, "1200")
	assertDec(t, "repay", SimpleWithRepayment(b, txs, asOf).TotalAmount, "1200")
	assertDec(t, "compound", Compound(b, txs, asOf).TotalAmount, "1331")
}

func TestCompoundMidWeekAsOf(t *testing.T) {
	b := borrower("10", core.MethodCompound)
	txs := []core.Transaction{
		taken("t1", d(2024, 1, 1), "1000"),
		taken("t2", d(2024, 1, 10), "500"), // Wednesday, after the as-of Tuesday
	}
	res := Compound(b, txs, d(2024, 1, 9))
	if len(res.Breakdown) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(res.Breakdown))
	}
	assertDec(t, "principal", res.Principal, "1000")
	assertDec(t, "total", res.TotalAmount, "1210")

	// The same ledger a day later picks up the Wednesday advance in week two.
	res = Compound(b, txs, d(2024, 1, 10))
	assertDec(t, "week two principal", res.Breakdown[1].Principal, "1600")
	assertDec(t, "total", res.TotalAmount, "1760")
}

func TestCompoundBreakdownIsChained(t *testing.T) {
	b := borrower("7.5", core.MethodCompound)
	txs := []core.Transaction{
		taken("a", d(2024, 1, 3), "1000"),
		returned("b", d(2024, 1, 16), "300"),
		taken("c", d(2024, 1, 16), "120.25"),
	}
	asOf := d(2024, 1, 29)

	res := Compound(b, txs, asOf)
	// Weeks of 2024-01-01 through 2024-01-29, inclusive.
	if len(res.Breakdown) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(res.Breakdown))
	}
	for i := 0; i+1 < len(res.Breakdown); i++ {
		cur, next := res.Breakdown[i], res.Breakdown[i+1]
		if !cur.Principal.Add(cur.Interest).Equal(cur.Balance) {
			t.Fatalf("week %d: principal + interest != balance", cur.Week)
		}
		applied := next.Principal.Sub(cur.Balance)
		if i == 1 {
			assertDec(t, "net applied in week 3", applied, "-179.75")
			continue
		}
		if !applied.IsZero() {
			t.Fatalf("week %d: unexplained change %s", next.Week, applied)
		}
	}
	last := res.Breakdown[len(res.Breakdown)-1]
	if !res.TotalAmount.Equal(last.Balance) {
		t.Fatalf("total %s != last balance %s", res.TotalAmount, last.Balance)
	}
	if !res.TotalInterest.Equal(res.TotalAmount.Sub(res.Principal)) {
		t.Fatalf("total interest is not derived from total and principal")
	}
}

func TestOverRepaidClampsPrincipal(t *testing.T) {
	b := borrower("10", core.MethodCompound)
	txs := []core.Transaction{
		taken("t", d(2024, 1, 1), "100"),
		returned("r", d(2024, 1, 2), "150"),
	}
	asOf := d(2024, 1, 15)

	comp := Compound(b, txs, asOf)
	assertDec(t, "compound principal", comp.Principal, "0")
	assertDec(t, "compound total", comp.TotalAmount, "-66.55")
	assertDec(t, "compound interest", comp.TotalInterest, "-66.55")

	repay := SimpleWithRepayment(b, txs, asOf)
	assertDec(t, "repay principal", repay.Principal, "0")
	assertDec(t, "repay interest", repay.TotalInterest, "0")
	assertDec(t, "repay total", repay.TotalAmount, "-50")
}

func TestZeroRate(t *testing.T) {
	b := borrower("0", core.MethodCompound)
	txs := []core.Transaction{taken("t", d(2024, 1, 1), "1000")}
	asOf := d(2024, 6, 1)
	for _, calc := range []Calculator{Simple, SimpleWithRepayment, Compound} {
		res := calc(b, txs, asOf)
		assertDec(t, string(res.Method), res.TotalInterest, "0")
		assertDec(t, string(res.Method), res.TotalAmount, "1000")
	}
}

func TestCalculatorsAreIdempotent(t *testing.T) {
	b := borrower("12.5", core.MethodCompound)
	txs := []core.Transaction{
		taken("a", d(2024, 2, 7), "640"),
		returned("b", d(2024, 1, 30), "15"),
		taken("c", d(2024, 1, 2), "333.33"),
	}
	before := append([]core.Transaction(nil), txs...)
	asOf := d(2024, 4, 2)

	for _, calc := range []Calculator{Simple, SimpleWithRepayment, Compound} {
		first, second := calc(b, txs, asOf), calc(b, txs, asOf)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s: results differ between calls", first.Method)
		}
	}
	if !reflect.DeepEqual(before, txs) {
		t.Fatalf("input transactions were mutated")
	}
}

func TestCalculate(t *testing.T) {
	txs := []core.Transaction{taken("t", d(2024, 1, 1), "1000")}
	asOf := d(2024, 1, 15)

	res, err := Calculate(borrower("10", core.MethodSimpleWithRepay), txs, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Method != core.MethodSimpleWithRepay {
		t.Fatalf("expected simple_with_repay, got %s", res.Method)
	}

	_, err = Calculate(borrower("10", "monthly"), txs, asOf)
	if !errors.Is(err, core.ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestDailyRate(t *testing.T) {
	if got := DailyRate(dec("0")); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := DailyRate(dec("10")); math.Abs(got-1.3708856295468) > 1e-9 {
		t.Fatalf("unexpected daily rate %v", got)
	}
}
