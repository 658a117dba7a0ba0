package source

import "sort"

// BotAliases maps alias names to bot user agent patterns.
// Pattern files and builtin sources reference them as "$Name".
// Composite aliases reference other aliases (single level nesting).
var BotAliases = map[string][]string{
	"GooglebotSearch": {
		`Googlebot(?:-Image|-News|-Video)?/\d`,
		`Google-InspectionTool`,
		`Storebot-Google`,
	},
	"GoogleBotAds": {
		`AdsBot-Google(?:-Mobile)?`,
		`Mediapartners-Google`,
	},
	"Bingbot": {
		`bingbot/\d`,
		`BingPreview`,
		`msnbot`,
	},
	"YandexBot": {
		`YandexBot|YandexImages|YandexMobileBot`,
	},
	"DuckDuckBot": {
		`DuckDuckBot`,
	},
	"Baiduspider": {
		`Baiduspider`,
	},

	"ChatGPTUserBot": {
		`ChatGPT-User/\d`,
	},
	"OpenAISearchBot": {
		`OAI-SearchBot/\d`,
	},
	"ChatGPTTrainingBot": {
		`GPTBot/\d\.\d`,
	},
	"PerplexityBot": {
		`PerplexityBot/\d`,
		`Perplexity-User/\d`,
	},
	"AnthropicBot": {
		`ClaudeBot/\d`,
		`Claude-User`,
		`Claude-SearchBot`,
	},
	"Amazonbot": {
		`Amazonbot/\d`,
		`AMZN-User/`,
	},

	"Messengers": {
		`WhatsApp/`,
		`ViberBot`,
		`TelegramBot`,
		`Snapchat`,
		`Discordbot`,
		`Slackbot`,
	},
	"Socials": {
		`facebookexternalhit`,
		`Twitterbot`,
		`Pinterestbot/`,
		`Applebot/`,
		`LinkedInBot`,
	},
	"Generic": {
		`(?<! cu)bots?(?:\b|_)`,
		`crawler`,
		`spider`,
		`(?<!(?:lib))http`,
		`headless`,
		`python-requests`,
		`curl/`,
		`wget`,
	},

	"SearchBots": {
		"$GooglebotSearch",
		"$Bingbot",
		"$YandexBot",
		"$DuckDuckBot",
		"$Baiduspider",
	},
	"AIBots": {
		"$ChatGPTUserBot",
		"$OpenAISearchBot",
		"$ChatGPTTrainingBot",
		"$PerplexityBot",
		"$AnthropicBot",
		"$Amazonbot",
	},
	"All": {
		"$SearchBots",
		"$GoogleBotAds",
		"$AIBots",
		"$Messengers",
		"$Socials",
		"$Generic",
	},
}

// GetBotAlias returns the patterns for a given alias name.
func GetBotAlias(name string) ([]string, bool) {
	patterns, exists := BotAliases[name]
	return patterns, exists
}

// GetAvailableAliases returns a sorted list of all alias names.
func GetAvailableAliases() []string {
	aliases := make([]string, 0, len(BotAliases))
	for name := range BotAliases {
		aliases = append(aliases, name)
	}
	sort.Strings(aliases)
	return aliases
}
