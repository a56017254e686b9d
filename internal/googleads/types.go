package googleads

import "time"

// Campaign is a campaign row returned from a GAQL search.
type Campaign struct {
	ID           int64
	ResourceName string
	Name         string
	Status       string // ENABLED, PAUSED, REMOVED
	Channel      string // SEARCH, DISPLAY, ...
	BudgetMicros int64
	BudgetRef    string // campaign budget resource name
}

// AdGroup is an ad group row returned from a GAQL search.
type AdGroup struct {
	ID           int64
	ResourceName string
	CampaignID   int64
	Name         string
	Status       string
	CPCBidMicros int64
}

// Keyword is an ad group criterion row of type KEYWORD.
type Keyword struct {
	CriterionID  int64
	ResourceName string
	AdGroupID    int64
	Text         string
	MatchType    string // EXACT, PHRASE, BROAD
	Status       string
	QualityScore int // 0 when not populated
}

// DailyMetrics is one day of performance for one entity.
type DailyMetrics struct {
	EntityType      string // campaign, ad_group, keyword
	EntityID        int64
	Date            time.Time
	Impressions     int64
	Clicks          int64
	CostMicros      int64
	Conversions     float64
	ConversionValue float64
	TopImprShare    float64
	AbsTopImprShare float64
}

// KeywordIdea is one suggestion from the keyword plan idea service.
type KeywordIdea struct {
	Text                   string
	AvgMonthlySearches     int64
	Competition            string // LOW, MEDIUM, HIGH
	CompetitionIndex       int64  // 0-100
	LowTopOfPageBidMicros  int64
	HighTopOfPageBidMicros int64
}

// searchStream wire shapes (REST JSON uses camelCase and string int64s).

type searchStreamRequest struct {
	Query string `json:"query"`
}

type searchStreamChunk struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Campaign *struct {
		ResourceName string `json:"resourceName"`
		ID           string `json:"id"`
		Name         string `json:"name"`
		Status       string `json:"status"`
		Channel      string `json:"advertisingChannelType"`
		Budget       string `json:"campaignBudget"`
	} `json:"campaign,omitempty"`
	CampaignBudget *struct {
		ResourceName string `json:"resourceName"`
		AmountMicros string `json:"amountMicros"`
	} `json:"campaignBudget,omitempty"`
	AdGroup *struct {
		ResourceName string `json:"resourceName"`
		ID           string `json:"id"`
		Name         string `json:"name"`
		Status       string `json:"status"`
		CPCBidMicros string `json:"cpcBidMicros"`
	} `json:"adGroup,omitempty"`
	AdGroupCriterion *struct {
		ResourceName string `json:"resourceName"`
		CriterionID  string `json:"criterionId"`
		Status       string `json:"status"`
		QualityInfo  *struct {
			QualityScore int `json:"qualityScore"`
		} `json:"qualityInfo,omitempty"`
		Keyword *struct {
			Text      string `json:"text"`
			MatchType string `json:"matchType"`
		} `json:"keyword,omitempty"`
	} `json:"adGroupCriterion,omitempty"`
	Metrics *struct {
		Impressions           string  `json:"impressions"`
		Clicks                string  `json:"clicks"`
		CostMicros            string  `json:"costMicros"`
		Conversions           float64 `json:"conversions"`
		ConversionsValue      float64 `json:"conversionsValue"`
		TopImpressionShare    float64 `json:"searchTopImpressionShare"`
		AbsTopImpressionShare float64 `json:"searchAbsoluteTopImpressionShare"`
	} `json:"metrics,omitempty"`
	Segments *struct {
		Date string `json:"date"`
	} `json:"segments,omitempty"`
}

type keywordIdeasRequest struct {
	Language      string       `json:"language,omitempty"`
	GeoTargets    []string     `json:"geoTargetConstants,omitempty"`
	KeywordSeed   *keywordSeed `json:"keywordSeed,omitempty"`
	URLSeed       *urlSeed     `json:"urlSeed,omitempty"`
	PageSize      int          `json:"pageSize,omitempty"`
	IncludeAdults bool         `json:"includeAdultKeywords,omitempty"`
}

type keywordSeed struct {
	Keywords []string `json:"keywords"`
}

type urlSeed struct {
	URL string `json:"url"`
}

type keywordIdeasResponse struct {
	Results []struct {
		Text    string `json:"text"`
		Metrics *struct {
			AvgMonthlySearches string `json:"avgMonthlySearches"`
			Competition        string `json:"competition"`
			CompetitionIndex   string `json:"competitionIndex"`
			LowTopOfPageBid    string `json:"lowTopOfPageBidMicros"`
			HighTopOfPageBid   string `json:"highTopOfPageBidMicros"`
		} `json:"keywordIdeaMetrics,omitempty"`
	} `json:"results"`
}

type mutateOperation struct {
	Update     map[string]any `json:"update,omitempty"`
	UpdateMask string         `json:"updateMask,omitempty"`
}

type mutateRequest struct {
	Operations []mutateOperation `json:"operations"`
}

type mutateResponse struct {
	Results []struct {
		ResourceName string `json:"resourceName"`
	} `json:"results"`
}
