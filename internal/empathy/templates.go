package empathy

import (
	"math/rand/v2"

	"github.com/bloomcare/checkin/internal/models"
)

// Static per-trigger template pools used when generation is unavailable.
var templates = map[models.EmpathyTrigger][]string{
	models.TriggerSafetyConcern: {
		"Thank you for telling me that. Your safety matters, and it took courage to share this.",
		"I'm really glad you shared that with me. You deserve to feel safe.",
		"That sounds frightening. Thank you for trusting me with this.",
	},
	models.TriggerPhysicalHarm: {
		"I'm so sorry that happened to you. No one deserves to be hurt, and this is not your fault.",
		"Thank you for sharing something so difficult. What happened to you is not okay, and it is not your fault.",
		"I hear you, and I'm sorry you went through that. You didn't do anything to deserve it.",
	},
	models.TriggerFinancialDistress: {
		"Money worries can be really heavy, especially right now. Thank you for being honest about it.",
		"That sounds stressful. A lot of families go through this, and it's nothing to be ashamed of.",
		"Thank you for sharing that. Financial strain is hard, and you're not alone in it.",
	},
	models.TriggerHousingInsecurity: {
		"Worrying about where you'll live is exhausting. Thank you for telling me.",
		"That's a heavy thing to carry. I'm glad you shared it with me.",
		"Housing worries are really stressful, especially with a baby on the way. Thank you for being open.",
	},
	models.TriggerFoodInsecurity: {
		"Thank you for telling me. Not having enough food is stressful, and it's nothing to be ashamed of.",
		"That sounds really hard. I'm glad you shared it, and there is help available.",
		"I appreciate you being honest about that. You and your baby deserve to have enough to eat.",
	},
	models.TriggerGeneralDistress: {
		"That sounds really hard. Thank you for sharing it with me.",
		"I hear you. What you're feeling makes sense, and you're not alone.",
		"Thank you for being open about that. It's okay to not be okay sometimes.",
	},
}

// templateFor selects a template for the trigger uniformly at random.
func templateFor(trigger models.EmpathyTrigger) string {
	pool, ok := templates[trigger]
	if !ok || len(pool) == 0 {
		pool = templates[models.TriggerGeneralDistress]
	}
	return pool[rand.IntN(len(pool))]
}
