package scoring

// ROIInput is spend and return for one entity over a window. Money is
// in micros, matching the stored facts. MarginPct is the advertiser's
// gross margin as a percentage (e.g. 40 = 40%); zero means revenue is
// treated as pure profit.
type ROIInput struct {
	CostMicros            int64
	ConversionValueMicros int64
	Conversions           float64
	MarginPct             float64
}

// ROIResult holds the derived spend-efficiency figures. Zero-spend and
// zero-conversion inputs yield zeroed fields rather than NaN/Inf.
type ROIResult struct {
	ROAS               float64 `json:"roas"`
	ROIPct             float64 `json:"roi_pct"`
	CPAMicros          int64   `json:"cpa_micros"`
	BreakEvenCPAMicros int64   `json:"break_even_cpa_micros"`
	ProfitMicros       int64   `json:"profit_micros"`
}

// CalculateROI derives ROAS (value/cost), ROI% ((profit-cost)/cost),
// actual and break-even CPA, and profit at the given margin. Break-even
// CPA is the per-conversion profit: spending more than that per
// conversion loses money.
func CalculateROI(in ROIInput) ROIResult {
	margin := in.MarginPct / 100
	if margin <= 0 || margin > 1 {
		margin = 1
	}
	profit := int64(float64(in.ConversionValueMicros) * margin)

	var r ROIResult
	r.ProfitMicros = profit - in.CostMicros

	if in.CostMicros > 0 {
		r.ROAS = float64(in.ConversionValueMicros) / float64(in.CostMicros)
		r.ROIPct = float64(profit-in.CostMicros) / float64(in.CostMicros) * 100
	}
	if in.Conversions > 0 {
		r.CPAMicros = int64(float64(in.CostMicros) / in.Conversions)
		r.BreakEvenCPAMicros = int64(float64(profit) / in.Conversions)
	}
	return r
}
