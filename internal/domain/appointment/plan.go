package appointment

// ===============================
// Plan Tiers
// ===============================

type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanBasic   PlanTier = "basic"
	PlanPremium PlanTier = "premium"
)

// PlanPolicy descreve o que um plano permite em agendamentos.
type PlanPolicy struct {
	Scheduling bool
	// Máximo de agendamentos ativos por período; 0 = sem limite.
	PerPeriod int
}

var planPolicies = map[PlanTier]PlanPolicy{
	PlanFree:    {Scheduling: false},
	PlanBasic:   {Scheduling: false},
	PlanPremium: {Scheduling: true, PerPeriod: 1},
}

// PolicyFor devolve a política do plano. Plano desconhecido não agenda.
func PolicyFor(tier PlanTier) PlanPolicy {
	if p, ok := planPolicies[tier]; ok {
		return p
	}
	return PlanPolicy{}
}

// ===============================
// Quota
// ===============================

const (
	ReasonTierNotEligible = "tier_not_eligible"
	ReasonAlreadyBooked   = "already_booked_this_period"
)

type QuotaDecision struct {
	Eligible bool     `json:"eligible"`
	Reason   string   `json:"reason,omitempty"`
	Tier     PlanTier `json:"plan_tier"`
	Used     int64    `json:"used"`
	Limit    int      `json:"limit"`
	Period   string   `json:"period"`
}

// Evaluate decide a cota a partir do plano e do uso no período.
func Evaluate(tier PlanTier, used int64) QuotaDecision {
	policy := PolicyFor(tier)
	d := QuotaDecision{Tier: tier, Used: used, Limit: policy.PerPeriod}

	if !policy.Scheduling {
		d.Reason = ReasonTierNotEligible
		return d
	}
	if policy.PerPeriod > 0 && used >= int64(policy.PerPeriod) {
		d.Reason = ReasonAlreadyBooked
		return d
	}

	d.Eligible = true
	return d
}
