package registry

import (
	"time"

	"careertools/internal/types"
)

// HeatmapTimeout bounds the opportunity-heatmap request, the slowest endpoint
const HeatmapTimeout = 60 * time.Second

var (
	regions    = []string{"North America", "Latin America", "Europe", "Middle East", "Africa", "Asia Pacific"}
	currencies = []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD"}
	industries = []string{"Technology", "Finance", "Healthcare", "Education", "Retail", "Manufacturing", "Other"}
	riskLevels = []string{"conservative", "moderate", "aggressive"}
)

func jobTitleField() Field {
	return Field{
		Name: "jobTitle", Label: "Job title", Kind: KindText, Required: true,
		Rule: "min=3,max=120", Placeholder: "Backend Engineer",
	}
}

func experienceField() Field {
	return Field{
		Name: "yearsOfExperience", Label: "Years of experience", Kind: KindInteger, Required: true,
		Rule: "whole,gte=0,lte=50",
	}
}

func skillsField() Field {
	return Field{
		Name: "skills", Label: "Skills", Kind: KindStringSet, Required: true,
		Rule: "min=1,max=30,dive,required,max=60", Help: "Comma separated, e.g. Go, SQL, Kubernetes",
	}
}

func opportunityHeatmap() *Tool {
	jobTitle := jobTitleField()
	experience := experienceField()
	skills := skillsField()
	preferred := Field{
		Name: "preferredRegions", Label: "Preferred regions", Kind: KindMultiChoice, Options: regions,
	}
	remote := Field{Name: "remoteOnly", Label: "Remote only", Kind: KindBoolean}

	return &Tool{
		Kind:        types.ToolOpportunityHeatmap,
		Title:       "Global Opportunity Heatmap",
		Description: "Where in the world your profile is most in demand, with salary bands per country.",
		Endpoint:    "/api/opportunity-heatmap",
		WrapperKey:  "analysis",
		Timeout:     HeatmapTimeout,
		Fields:      []Field{jobTitle, experience, skills, preferred, remote},
		Steps: []StepDescriptor{
			newStep(1, "Your role", []Field{jobTitle, experience}),
			newStep(2, "Your skills", []Field{skills}),
			newStep(3, "Preferences", []Field{preferred, remote}),
		},
		NewResult: func() types.ToolResult { return &types.HeatmapResult{} },
	}
}

func skillGapAnalyzer() *Tool {
	current := Field{Name: "currentRole", Label: "Current role", Kind: KindText, Required: true, Rule: "min=3,max=120"}
	target := Field{Name: "targetRole", Label: "Target role", Kind: KindText, Required: true, Rule: "min=3,max=120"}
	skills := skillsField()
	experience := experienceField()
	hours := Field{
		Name: "hoursPerWeek", Label: "Learning hours per week", Kind: KindInteger, Required: true,
		Rule: "whole,gte=1,lte=60",
	}

	return &Tool{
		Kind:        types.ToolSkillGapAnalyzer,
		Title:       "Skill Gap Analyzer",
		Description: "Compares your skills with a target role and builds a phased learning roadmap.",
		Endpoint:    "/api/skill-gap-analyzer",
		WrapperKey:  "roadmap",
		Fields:      []Field{current, target, skills, experience, hours},
		Steps: []StepDescriptor{
			newStep(1, "Roles", []Field{current, target}),
			newStep(2, "Skills and experience", []Field{skills, experience}),
			newStep(3, "Availability", []Field{hours}),
		},
		NewResult: func() types.ToolResult { return &types.SkillGapResult{} },
	}
}

func salaryComparator() *Tool {
	jobTitle := jobTitleField()
	experience := experienceField()
	location := Field{Name: "location", Label: "Current location", Kind: KindText, Required: true, Rule: "min=2,max=120"}
	salary := Field{Name: "currentSalary", Label: "Current annual salary", Kind: KindNumber, Required: true, Rule: "gte=0,lte=100000000"}
	currency := Field{Name: "currency", Label: "Currency", Kind: KindChoice, Required: true, Options: currencies}
	compare := Field{
		Name: "compareLocations", Label: "Locations to compare", Kind: KindStringSet, Required: true,
		Rule: "min=1,max=5,dive,required,max=120", Help: "Up to five cities or countries",
	}

	return &Tool{
		Kind:        types.ToolSalaryComparator,
		Title:       "Salary Comparator",
		Description: "Benchmarks your pay against the market and other locations, cost of living adjusted.",
		Endpoint:    "/api/salary-comparator",
		WrapperKey:  "comparison",
		Fields:      []Field{jobTitle, experience, location, salary, currency, compare},
		Steps: []StepDescriptor{
			newStep(1, "Your role", []Field{jobTitle, experience}),
			newStep(2, "Compensation", []Field{location, salary, currency}),
			newStep(3, "Compare with", []Field{compare}),
		},
		NewResult: func() types.ToolResult { return &types.SalaryResult{} },
	}
}

func resumeGapFinder() *Tool {
	target := Field{Name: "targetRole", Label: "Target role", Kind: KindText, Required: true, Rule: "min=3,max=120"}
	industry := Field{Name: "industry", Label: "Industry", Kind: KindChoice, Required: true, Options: industries}
	resume := Field{
		Name: "resumeText", Label: "Resume text", Kind: KindLongText, Required: true,
		Rule: "min=100,max=20000", Help: "Paste the plain text of your resume",
	}
	gap := Field{Name: "careerGapMonths", Label: "Career gap (months)", Kind: KindInteger, Rule: "whole,gte=0,lte=240"}

	return &Tool{
		Kind:        types.ToolResumeGapFinder,
		Title:       "Resume Gap Finder",
		Description: "Finds weak sections and missing keywords in your resume for a target role.",
		Endpoint:    "/api/resume-gap-finder",
		WrapperKey:  "assessment",
		Fields:      []Field{target, industry, resume, gap},
		Steps: []StepDescriptor{
			newStep(1, "Target", []Field{target, industry}),
			newStep(2, "Resume", []Field{resume}),
			newStep(3, "History", []Field{gap}),
		},
		NewResult: func() types.ToolResult { return &types.ResumeGapResult{} },
	}
}

func retirementCalculator() *Tool {
	age := Field{Name: "currentAge", Label: "Current age", Kind: KindInteger, Required: true, Rule: "whole,gte=18,lte=80"}
	retireAt := Field{Name: "retirementAge", Label: "Retirement age", Kind: KindInteger, Required: true, Rule: "whole,gte=40,lte=85"}
	savings := Field{Name: "currentSavings", Label: "Current savings", Kind: KindNumber, Required: true, Rule: "gte=0"}
	monthly := Field{Name: "monthlyContribution", Label: "Monthly contribution", Kind: KindNumber, Required: true, Rule: "gte=0"}
	expected := Field{Name: "expectedReturn", Label: "Expected annual return (%)", Kind: KindNumber, Required: true, Rule: "gte=0,lte=15"}
	risk := Field{Name: "riskTolerance", Label: "Risk tolerance", Kind: KindChoice, Required: true, Options: riskLevels}

	retireAfterNow := CrossCheck{
		Field:   "retirementAge",
		Label:   "Retirement age",
		Message: "must be greater than current age",
		Holds: func(d types.ProfileDraft) bool {
			now, _ := d.Number("currentAge")
			then, _ := d.Number("retirementAge")
			return then > now
		},
	}

	return &Tool{
		Kind:        types.ToolRetirementCalculator,
		Title:       "Retirement Calculator",
		Description: "Projects your savings to retirement and checks whether you are on track.",
		Endpoint:    "/api/retirement-calculator",
		WrapperKey:  "projection",
		Fields:      []Field{age, retireAt, savings, monthly, expected, risk},
		Steps: []StepDescriptor{
			newStep(1, "Timeline", []Field{age, retireAt}, retireAfterNow),
			newStep(2, "Savings", []Field{savings, monthly}),
			newStep(3, "Strategy", []Field{expected, risk}),
		},
		NewResult: func() types.ToolResult { return &types.RetirementResult{} },
	}
}
