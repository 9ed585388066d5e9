package position

import (
	"github.com/shopspring/decimal"

	"github.com/FrancoUysp/TT/internal/types"
)

const (
	dailyBucketLayout   = "2006-01-02"
	monthlyBucketLayout = "2006-01"
)

// RoiReport buckets return on investment by the entry day and entry month
// of each round trip, plus an all-time figure. Values are percentages.
type RoiReport struct {
	Daily   map[string]float64 `json:"daily"`
	Monthly map[string]float64 `json:"monthly"`
	AllTime float64            `json:"all_time"`
}

type roiBucket struct {
	profit     decimal.Decimal
	investment decimal.Decimal
}

func (b *roiBucket) add(profit, investment decimal.Decimal) {
	b.profit = b.profit.Add(profit)
	b.investment = b.investment.Add(investment)
}

// percent returns 100 * profit / investment, and zero when nothing was
// invested.
func (b *roiBucket) percent() float64 {
	if b.investment.IsZero() {
		return 0
	}

	ratio, _ := b.profit.Div(b.investment).Mul(decimal.NewFromInt(100)).Float64()
	return ratio
}

// CalculateRoi replays completed round trips into an ROI report. Profit per
// trip is (exit price - entry price) scaled by the signed entry units, so
// short trips profit from falling prices. Investment is the absolute entry
// notional.
func CalculateRoi(trips []types.RoundTrip) RoiReport {
	daily := make(map[string]*roiBucket)
	monthly := make(map[string]*roiBucket)
	all := &roiBucket{}

	for _, trip := range trips {
		entryPrice := decimal.NewFromFloat(trip.Entry.Price)
		exitPrice := decimal.NewFromFloat(trip.Exit.Price)
		units := decimal.NewFromFloat(trip.Entry.Units)

		profit := exitPrice.Sub(entryPrice).Mul(units)
		investment := entryPrice.Mul(units.Abs())

		day := trip.Entry.RecordedAt.Format(dailyBucketLayout)
		month := trip.Entry.RecordedAt.Format(monthlyBucketLayout)

		if _, ok := daily[day]; !ok {
			daily[day] = &roiBucket{}
		}
		if _, ok := monthly[month]; !ok {
			monthly[month] = &roiBucket{}
		}

		daily[day].add(profit, investment)
		monthly[month].add(profit, investment)
		all.add(profit, investment)
	}

	report := RoiReport{
		Daily:   make(map[string]float64, len(daily)),
		Monthly: make(map[string]float64, len(monthly)),
		AllTime: all.percent(),
	}

	for day, bucket := range daily {
		report.Daily[day] = bucket.percent()
	}
	for month, bucket := range monthly {
		report.Monthly[month] = bucket.percent()
	}

	return report
}
