package constants

import "time"

// Message length limits for different platforms
const (
	// MaxDiscordMessageLength is Discord's message character limit
	MaxDiscordMessageLength = 2000
	// MaxTelegramMessageLength is Telegram's message character limit
	MaxTelegramMessageLength = 4096
	// MaxFeishuMessageLength is Feishu's message character limit
	MaxFeishuMessageLength = 20000
	// MaxDingTalkMessageLength is DingTalk's message character limit
	MaxDingTalkMessageLength = 20000
)

// Message buffer sizes
const (
	// MessageChannelBufferSize is the buffer size for the inbound message channel
	MessageChannelBufferSize = 100
)

// Scheduled push defaults
const (
	// DefaultPushHour is the local wall-clock hour of the daily Epic push
	DefaultPushHour = 12
	// DefaultTimezone is the timezone the push schedule is computed in
	DefaultTimezone = "Asia/Shanghai"
)

// Sleep diary
const (
	// SleepRecordTTL is how long an unanswered sleep record is kept
	SleepRecordTTL = 24 * time.Hour
	// SleepSweepInterval is how often expired sleep records are swept
	SleepSweepInterval = time.Minute
)

// Blackjack
const (
	// BlackjackTarget is the bust threshold
	BlackjackTarget = 21
	// DealerStandPoints is the total at which the dealer stops drawing
	DealerStandPoints = 17
)

// External queries
const (
	// TelegramPollTimeout is the long-poll timeout for Telegram updates
	TelegramPollTimeout = 30 * time.Second
	// DefaultEpicFetchTimeout bounds one catalog fetch
	DefaultEpicFetchTimeout = 15 * time.Second
	// DefaultMinecraftQueryTimeout bounds one server status ping
	DefaultMinecraftQueryTimeout = 5 * time.Second
)

// Secret masking
const (
	// MinSecretLengthForMasking is the minimum secret length to apply masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)
