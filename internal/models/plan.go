package models

import "github.com/shopspring/decimal"

// PlanTypeFree marks the free-trial plan product.
const PlanTypeFree = "free"

// FreePlanID is the identifier of the time-boxed free-trial plan.
const FreePlanID = "free-starter"

// MaxFreePlans caps how many free-trial investments an account may activate.
const MaxFreePlans = 5

// Plan describes a fixed-return investment product
type Plan struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Type         string          `json:"type,omitempty"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ReturnAmount decimal.Decimal `json:"returnAmount"`
	ROIPercent   decimal.Decimal `json:"roiPercent"`
	Amount       decimal.Decimal `json:"amount,omitempty"`
	TermDays     int             `json:"termDays,omitempty"`
	TermHours    int             `json:"termHours,omitempty"`
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Plans is the fixed catalogue of investment products.
var Plans = []Plan{
	{ID: "starter", Title: "Starter Plan", Price: d("100"), ReturnAmount: d("2500"), ROIPercent: d("2400"), Description: "The best start for your crypto journey."},
	{ID: "growth", Title: "Growth Plan", Price: d("250"), ReturnAmount: d("5000"), ROIPercent: d("1900"), Description: "Accelerate your portfolio growth."},
	{ID: "premium", Title: "Premium Plan", Price: d("450"), ReturnAmount: d("7500"), ROIPercent: d("1566"), Description: "Maximize returns with premium benefits."},
	{ID: "longterm", Title: "Longterm Plan", Price: d("600"), ReturnAmount: d("10000"), ROIPercent: d("1566"), Description: "Secure your future with long-term gains."},
	{ID: "titanium", Title: "Titanium Exclusive", Price: d("950"), ReturnAmount: d("13000"), ROIPercent: d("1268"), Description: "Elite tier for maximum profitability."},
	{ID: FreePlanID, Title: "Free Starter ($2000)", Type: PlanTypeFree, Price: decimal.Zero, ReturnAmount: d("30"), ROIPercent: d("1.5"), TermHours: 1, Amount: d("2000"), Description: "Exclusive 1-Hour Free Plan. Try with $2000 virtual funds."},
}

// FindPlan looks up a plan by id.
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
