package types

// SalaryRange is an annual compensation band
type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// CountryOpportunity is one ranked country on the opportunity heatmap
type CountryOpportunity struct {
	Country          string      `json:"country"`
	CountryCode      string      `json:"countryCode"`
	Latitude         float64     `json:"latitude"`
	Longitude        float64     `json:"longitude"`
	OpportunityScore float64     `json:"opportunityScore"`
	DemandLevel      string      `json:"demandLevel"`
	SalaryRange      SalaryRange `json:"salaryRange"`
	VisaDifficulty   string      `json:"visaDifficulty,omitempty"`
	RemoteFriendly   bool        `json:"remoteFriendly"`
	TopCities        []string    `json:"topCities,omitempty"`
}

// SkillDemand describes how in-demand one skill is across markets
type SkillDemand struct {
	Skill        string   `json:"skill"`
	DemandScore  float64  `json:"demandScore"`
	Trend        string   `json:"trend"` // "rising", "stable" or "declining"
	TopCountries []string `json:"topCountries,omitempty"`
}

// HeatmapResult is the opportunity-heatmap payload
type HeatmapResult struct {
	Summary      string               `json:"summary"`
	TopCountries []CountryOpportunity `json:"topCountries"`
	SkillDemand  []SkillDemand        `json:"skillDemand"`
	Insights     []string             `json:"insights,omitempty"`
}

func (*HeatmapResult) Kind() ToolKind { return ToolOpportunityHeatmap }

// SkillGap is one missing or weak skill
type SkillGap struct {
	Skill         string   `json:"skill"`
	CurrentLevel  string   `json:"currentLevel"`
	RequiredLevel string   `json:"requiredLevel"`
	Reason        string   `json:"reason,omitempty"`
	Resources     []string `json:"resources,omitempty"`
}

// LearningPhase is one step of the learning roadmap
type LearningPhase struct {
	Title      string   `json:"title"`
	Duration   string   `json:"duration"`
	Focus      []string `json:"focus,omitempty"`
	Milestones []string `json:"milestones,omitempty"`
}

// SkillGapResult is the skill-gap-analyzer payload
type SkillGapResult struct {
	ReadinessScore float64         `json:"readinessScore"`
	Summary        string          `json:"summary"`
	CriticalGaps   []SkillGap      `json:"criticalGaps"`
	ImportantGaps  []SkillGap      `json:"importantGaps"`
	NiceToHave     []SkillGap      `json:"niceToHave"`
	Strengths      []string        `json:"strengths,omitempty"`
	Phases         []LearningPhase `json:"phases"`
}

func (*SkillGapResult) Kind() ToolKind { return ToolSkillGapAnalyzer }

// LocationSalary compares pay in one location
type LocationSalary struct {
	Location          string  `json:"location"`
	Min               float64 `json:"min"`
	Median            float64 `json:"median"`
	Max               float64 `json:"max"`
	CostOfLivingIndex float64 `json:"costOfLivingIndex"`
	AdjustedMedian    float64 `json:"adjustedMedian"`
}

// SalaryResult is the salary-comparator payload
type SalaryResult struct {
	Currency        string           `json:"currency"`
	MarketMedian    float64          `json:"marketMedian"`
	Percentile      float64          `json:"percentile"`
	Summary         string           `json:"summary"`
	Locations       []LocationSalary `json:"locations"`
	NegotiationTips []string         `json:"negotiationTips"`
	Factors         []string         `json:"factors,omitempty"`
}

func (*SalaryResult) Kind() ToolKind { return ToolSalaryComparator }

// ResumeGap is one weakness found in a resume
type ResumeGap struct {
	Section    string `json:"section"`
	Severity   string `json:"severity"` // "high", "medium" or "low"
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Recommendation is an actionable improvement
type Recommendation struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Impact string `json:"impact,omitempty"`
}

// ResumeGapResult is the resume-gap-finder payload
type ResumeGapResult struct {
	OverallScore    float64          `json:"overallScore"`
	Summary         string           `json:"summary"`
	Gaps            []ResumeGap      `json:"gaps"`
	MissingKeywords []string         `json:"missingKeywords"`
	Strengths       []string         `json:"strengths,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

func (*ResumeGapResult) Kind() ToolKind { return ToolResumeGapFinder }

// Milestone is a projected balance at a given age
type Milestone struct {
	Age     int     `json:"age"`
	Balance float64 `json:"balance"`
	Label   string  `json:"label"`
}

// Scenario is an alternative projection under a different return rate
type Scenario struct {
	Name             string  `json:"name"`
	ReturnRate       float64 `json:"returnRate"`
	ProjectedSavings float64 `json:"projectedSavings"`
}

// RetirementResult is the retirement-calculator payload
type RetirementResult struct {
	ProjectedSavings float64     `json:"projectedSavings"`
	MonthlyIncome    float64     `json:"monthlyIncome"`
	ReadinessScore   float64     `json:"readinessScore"`
	OnTrack          bool        `json:"onTrack"`
	Summary          string      `json:"summary"`
	Milestones       []Milestone `json:"milestones"`
	Recommendations  []string    `json:"recommendations"`
	Scenarios        []Scenario  `json:"scenarios,omitempty"`
}

func (*RetirementResult) Kind() ToolKind { return ToolRetirementCalculator }
