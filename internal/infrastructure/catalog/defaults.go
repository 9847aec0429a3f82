package catalog

import "github.com/kirillkom/pension-law-assistant/internal/core/domain"

// Built-in category profiles for the federal pension laws (400-ФЗ, 166-ФЗ,
// 424-ФЗ). Deployments override them via CATEGORY_RULES_PATH.
func defaultRules() []domain.CategoryRule {
	return []domain.CategoryRule{
		{
			ID:                "old_age_insurance",
			DisplayName:       "Страховая пенсия по старости",
			AnchorArticles:    []string{"400-ФЗ_Ст_8"},
			ConditionKeywords: []string{"возраст", "стаж", "ипк", "коэффициент"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "old_age_insurance_age",
					Description: "Достижение общеустановленного пенсионного возраста",
					Value:       "65 лет (мужчины), 60 лет (женщины)",
				},
				{
					ConditionID: "old_age_insurance_record",
					Description: "Минимальный страховой стаж",
					Value:       "не менее 15 лет",
				},
				{
					ConditionID: "old_age_insurance_ipk",
					Description: "Минимальная величина индивидуального пенсионного коэффициента",
					Value:       "не менее 30",
				},
			},
		},
		{
			ID:                "disability_insurance",
			DisplayName:       "Страховая пенсия по инвалидности",
			AnchorArticles:    []string{"400-ФЗ_Ст_9"},
			ConditionKeywords: []string{"инвалид", "инвалидность", "группа"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "disability_insurance_group",
					Description: "Признание инвалидом I, II или III группы",
					Value:       "независимо от причины и продолжительности стажа",
				},
			},
		},
		{
			ID:                "survivor_insurance",
			DisplayName:       "Страховая пенсия по случаю потери кормильца",
			AnchorArticles:    []string{"400-ФЗ_Ст_10"},
			ConditionKeywords: []string{"кормилец", "кормильца", "иждивение"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "survivor_insurance_dependency",
					Description: "Нетрудоспособный член семьи умершего кормильца, состоявший на его иждивении",
					Value:       "факт иждивения",
				},
			},
		},
		{
			ID:                "early_retirement",
			DisplayName:       "Досрочная страховая пенсия по старости",
			AnchorArticles:    []string{"400-ФЗ_Ст_30", "400-ФЗ_Ст_31", "400-ФЗ_Ст_32"},
			ConditionKeywords: []string{"досрочно", "досрочная", "вредные", "льготный"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "early_retirement_special_record",
					Description: "Стаж на соответствующих видах работ",
					Value:       "по спискам работ, производств и профессий",
				},
			},
		},
		{
			ID:                "social_pension",
			DisplayName:       "Социальная пенсия",
			AnchorArticles:    []string{"166-ФЗ_Ст_11"},
			ConditionKeywords: []string{"социальная", "проживание"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "social_pension_residence",
					Description: "Постоянное проживание в Российской Федерации",
					Value:       "нетрудоспособные граждане",
				},
			},
		},
		{
			ID:                "state_pension",
			DisplayName:       "Пенсия по государственному пенсионному обеспечению",
			AnchorArticles:    []string{"166-ФЗ_Ст_4"},
			ConditionKeywords: []string{"государственное", "госслужба", "выслуга"},
		},
		{
			ID:                "funded_pension",
			DisplayName:       "Накопительная пенсия",
			AnchorArticles:    []string{"424-ФЗ_Ст_6"},
			ConditionKeywords: []string{"накопительная", "накопления"},
			BaselineConditions: []domain.BaselineCondition{
				{
					ConditionID: "funded_pension_savings",
					Description: "Наличие средств пенсионных накоплений",
					Value:       "учтённых в специальной части лицевого счёта",
				},
			},
		},
	}
}

// The dictionary is ordered: specific phrases come before their generic
// substrings because the first matching phrase claims the unit.
func defaultKeywords() []domain.KeywordMapping {
	return []domain.KeywordMapping{
		{Phrase: "страховая пенсия по старости", CategoryID: "old_age_insurance"},
		{Phrase: "страховая пенсия по инвалидности", CategoryID: "disability_insurance"},
		{Phrase: "страховая пенсия по случаю потери кормильца", CategoryID: "survivor_insurance"},
		{Phrase: "потеря кормильца", CategoryID: "survivor_insurance"},
		{Phrase: "потери кормильца", CategoryID: "survivor_insurance"},
		{Phrase: "досрочное назначение страховой пенсии", CategoryID: "early_retirement"},
		{Phrase: "досрочная страховая пенсия", CategoryID: "early_retirement"},
		{Phrase: "накопительная пенсия", CategoryID: "funded_pension"},
		{Phrase: "пенсионные накопления", CategoryID: "funded_pension"},
		{Phrase: "социальная пенсия", CategoryID: "social_pension"},
		{Phrase: "государственное пенсионное обеспечение", CategoryID: "state_pension"},
		{Phrase: "пенсия за выслугу лет", CategoryID: "state_pension"},
		{Phrase: "пенсия по инвалидности", CategoryID: "disability_insurance"},
		{Phrase: "пенсия по старости", CategoryID: "old_age_insurance"},
	}
}
