package builtin

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/transformer"
)

// Derived metric columns added by Enrich.
const (
	ColGrossProfit          = "GrossProfit"
	ColProfitMargin         = "ProfitMargin"
	ColStockTurnOver        = "StockTurnOver"
	ColSalesToPurchaseRatio = "SalesToPurchaseRatio"
)

// Enrich derives the business metrics from the summed sales and purchase
// columns. Each ratio is exactly 0 when its denominator is exactly 0.
//
//	GrossProfit          = TotalSalesDollars - TotalPurchaseDollars
//	ProfitMargin         = GrossProfit / TotalSalesDollars * 100
//	StockTurnOver        = TotalSalesQuantity / TotalPurchaseQuantity
//	SalesToPurchaseRatio = TotalSalesDollars / TotalPurchaseDollars
type Enrich struct{}

func (Enrich) Name() string { return "enrich" }

func (Enrich) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, transformer.Report, error) {
	var rep transformer.Report
	if err := transformer.Require(df,
		"TotalSalesDollars", "TotalPurchaseDollars",
		"TotalSalesQuantity", "TotalPurchaseQuantity",
	); err != nil {
		return df, rep, err
	}

	salesD := df.Col("TotalSalesDollars").Float()
	purchD := df.Col("TotalPurchaseDollars").Float()
	salesQ := df.Col("TotalSalesQuantity").Float()
	purchQ := df.Col("TotalPurchaseQuantity").Float()

	n := df.Nrow()
	gross := make([]float64, n)
	margin := make([]float64, n)
	turnover := make([]float64, n)
	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		gross[i] = salesD[i] - purchD[i]
		margin[i] = guardedDiv(gross[i], salesD[i]) * 100
		turnover[i] = guardedDiv(salesQ[i], purchQ[i])
		ratio[i] = guardedDiv(salesD[i], purchD[i])
	}

	out := df.
		Mutate(series.New(gross, series.Float, ColGrossProfit)).
		Mutate(series.New(margin, series.Float, ColProfitMargin)).
		Mutate(series.New(turnover, series.Float, ColStockTurnOver)).
		Mutate(series.New(ratio, series.Float, ColSalesToPurchaseRatio))
	rep.ColumnsDerived = 4
	return out, rep, out.Err
}

// guardedDiv returns num/den, or exactly 0 when den == 0.
func guardedDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
