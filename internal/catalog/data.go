package catalog

import "github.com/bloomcare/checkin/internal/models"

// Domain identifiers for the built-in catalog.
const (
	DomainWellbeing = "wellbeing"
	DomainSafety    = "safety"
	DomainResources = "resources"
	DomainHabits    = "health_habits"
)

// defaultDomains returns the built-in maternal-care check-in questionnaire.
// Order matters: domains are visited sequentially unless a follow-up routes
// the flow into a different domain.
func defaultDomains() []models.Domain {
	return []models.Domain{
		{
			ID:          DomainWellbeing,
			Title:       "How you're feeling",
			Description: "First I'd like to check in on how you've been feeling lately.",
			Questions: []models.Question{
				{
					ID:      "mood_overall",
					Prompt:  "How would you describe your mood this past week?",
					Options: []string{"Mostly good", "Up and down", "Mostly low"},
					FollowUp: map[string]models.FollowUpTarget{
						"Mostly low": {QuestionID: "mood_support"},
						models.WildcardOption: {QuestionID: "sleep_rest"},
					},
				},
				{
					ID:     "mood_support",
					Prompt: "Is there someone you can talk to when you're feeling low?",
					Flag:   "mood_concern",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "sleep_rest",
					Prompt:  "Have you been able to get enough rest?",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "worry_check",
					Prompt:  "Is there anything that has been worrying you about your pregnancy?",
					Options: []string{"Yes", "No"},
					FollowUp: map[string]models.FollowUpTarget{
						"Yes": {DomainID: DomainSafety},
					},
				},
			},
		},
		{
			ID:          DomainSafety,
			Title:       "Feeling safe",
			Description: "These next questions are about how safe and supported you feel. You can skip anything you'd rather not answer.",
			Questions: []models.Question{
				{
					ID:      "home_safety",
					Prompt:  "Do you feel safe in your home?",
					Options: []string{"Yes", "No"},
					FollowUp: map[string]models.FollowUpTarget{
						"No": {QuestionID: "safety_support"},
					},
				},
				{
					ID:      "safety_support",
					Prompt:  "Has anyone hurt you or threatened to hurt you recently?",
					Flag:    "safety_risk",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "partner_support",
					Prompt:  "Do you feel supported by the people closest to you?",
					Options: []string{"Yes", "Sometimes", "No"},
				},
			},
		},
		{
			ID:          DomainResources,
			Title:       "Everyday needs",
			Description: "Now a few questions about everyday needs, so we can point you to help if it would be useful.",
			Questions: []models.Question{
				{
					ID:      "financial_strain",
					Prompt:  "Have you had trouble affording the things you need for yourself or your baby?",
					Flag:    "financial_need",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "housing_stability",
					Prompt:  "Are you worried about losing your housing in the next few months?",
					Flag:    "housing_risk",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "food_access",
					Prompt:  "In the past month, did you ever run out of food and not have money to buy more?",
					Flag:    "food_insecurity",
					Options: []string{"Yes", "No"},
				},
			},
		},
		{
			ID:          DomainHabits,
			Title:       "Healthy habits",
			Description: "Last section — a few quick questions about health routines.",
			Questions: []models.Question{
				{
					ID:      "prenatal_vitamins",
					Prompt:  "Are you currently taking a prenatal vitamin most days?",
					Options: []string{"Yes", "No"},
				},
				{
					ID:      "appointments",
					Prompt:  "Do you have your next prenatal appointment scheduled?",
					Options: []string{"Yes", "No"},
					FollowUp: map[string]models.FollowUpTarget{
						"No": {QuestionID: "appointment_barriers"},
					},
				},
				{
					ID:      "appointment_barriers",
					Prompt:  "Is anything making it hard to get to your appointments, like transportation or work?",
					Flag:    "care_access",
					Options: []string{"Yes", "No"},
				},
			},
		},
	}
}
