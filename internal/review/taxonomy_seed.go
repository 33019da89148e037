package review

// seedTags defines the built-in review taxonomy: 8 eras, 6 themes and
// 6 mistake patterns.
var seedTags = []Tag{
	// Eras (8)
	{
		ID:          "era-jomon-yayoi",
		Category:    CategoryEra,
		Label:       "Jomon and Yayoi",
		Description: "Prehistory through early agricultural society and the Yamatai polity",
	},
	{
		ID:          "era-asuka-nara",
		Category:    CategoryEra,
		Label:       "Asuka and Nara",
		Description: "Ritsuryo state formation, the Taika reforms, Buddhism as state religion",
	},
	{
		ID:          "era-heian",
		Category:    CategoryEra,
		Label:       "Heian",
		Description: "Fujiwara regency, courtly culture, rise of the warrior class",
	},
	{
		ID:          "era-kamakura",
		Category:    CategoryEra,
		Label:       "Kamakura",
		Description: "First shogunate, Mongol invasions, new Buddhist schools",
	},
	{
		ID:          "era-muromachi-sengoku",
		Category:    CategoryEra,
		Label:       "Muromachi and Sengoku",
		Description: "Ashikaga shogunate, Onin War, warring states daimyo",
	},
	{
		ID:          "era-azuchi-edo",
		Category:    CategoryEra,
		Label:       "Azuchi-Momoyama and Edo",
		Description: "Unification under Nobunaga and Hideyoshi, Tokugawa order, sakoku",
	},
	{
		ID:          "era-meiji",
		Category:    CategoryEra,
		Label:       "Meiji",
		Description: "Restoration, modernization, constitutional government, early empire",
	},
	{
		ID:          "era-taisho-showa",
		Category:    CategoryEra,
		Label:       "Taisho and Showa",
		Description: "Party politics, war years, occupation and high-growth recovery",
	},

	// Themes (6)
	{
		ID:          "theme-politics",
		Category:    CategoryTheme,
		Label:       "Politics and institutions",
		Description: "Government structures, reforms, legal codes, successions",
	},
	{
		ID:          "theme-culture",
		Category:    CategoryTheme,
		Label:       "Culture",
		Description: "Literature, art, architecture, religion as cultural practice",
	},
	{
		ID:          "theme-war",
		Category:    CategoryTheme,
		Label:       "War and conflict",
		Description: "Battles, campaigns, military institutions",
	},
	{
		ID:          "theme-economy",
		Category:    CategoryTheme,
		Label:       "Economy and society",
		Description: "Land systems, taxation, commerce, class structure",
	},
	{
		ID:          "theme-diplomacy",
		Category:    CategoryTheme,
		Label:       "Diplomacy",
		Description: "Foreign relations, treaties, trade missions, isolation policy",
	},
	{
		ID:          "theme-religion",
		Category:    CategoryTheme,
		Label:       "Religion and thought",
		Description: "Buddhism, Shinto, Confucian scholarship, intellectual movements",
	},

	// Mistake patterns (6)
	{
		ID:          "mistake-chronology",
		Category:    CategoryMistake,
		Label:       "Chronology confusion",
		Description: "Orders events incorrectly or places them in the wrong era",
	},
	{
		ID:          "mistake-name-confusion",
		Category:    CategoryMistake,
		Label:       "Name confusion",
		Description: "Mixes up similar-sounding people, places or institutions",
	},
	{
		ID:          "mistake-cause-effect",
		Category:    CategoryMistake,
		Label:       "Cause and effect",
		Description: "Reverses or misattributes the causal link between events",
	},
	{
		ID:          "mistake-term-misread",
		Category:    CategoryMistake,
		Label:       "Term misreading",
		Description: "Misunderstands what a technical term refers to",
	},
	{
		ID:          "mistake-careless",
		Category:    CategoryMistake,
		Label:       "Careless slip",
		Description: "Knows the material but answers hastily or misreads the question",
	},
	{
		ID:          "mistake-knowledge-gap",
		Category:    CategoryMistake,
		Label:       "Knowledge gap",
		Description: "The underlying fact was never learned",
	},
}
