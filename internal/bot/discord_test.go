package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockDiscordSession is a mock implementation of DiscordSessionInterface for testing
type MockDiscordSession struct {
	shouldFailOnOpen bool
	shouldFailOnSend bool
	openCalled       bool
	closed           bool
	sentMessages     []SentMessage
	sentEmbeds       []SentEmbed
	handler          interface{}
}

type SentMessage struct {
	Channel string
	Message string
}

type SentEmbed struct {
	Channel string
	Embed   *discordgo.MessageEmbed
}

func (m *MockDiscordSession) AddHandler(handler interface{}) func() {
	m.handler = handler
	return func() {} // Return a remove handler function
}

func (m *MockDiscordSession) Open() error {
	m.openCalled = true
	if m.shouldFailOnOpen {
		return errors.New("failed to open discord connection")
	}
	return nil
}

func (m *MockDiscordSession) Close() error {
	m.closed = true
	return nil
}

func (m *MockDiscordSession) ChannelMessageSend(channel, message string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.shouldFailOnSend {
		return nil, errors.New("failed to send message")
	}
	m.sentMessages = append(m.sentMessages, SentMessage{
		Channel: channel,
		Message: message,
	})
	return &discordgo.Message{ID: "msg-id"}, nil
}

func (m *MockDiscordSession) ChannelMessageSendEmbed(channel string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.shouldFailOnSend {
		return nil, errors.New("failed to send embed")
	}
	m.sentEmbeds = append(m.sentEmbeds, SentEmbed{
		Channel: channel,
		Embed:   embed,
	})
	return &discordgo.Message{ID: "msg-id"}, nil
}

// SimulateMessage delivers a message event through the registered handler
func (m *MockDiscordSession) SimulateMessage(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if m.handler == nil {
		return
	}
	handlerFunc, ok := m.handler.(func(*discordgo.Session, *discordgo.MessageCreate))
	if !ok {
		return
	}
	handlerFunc(s, msg)
}

// TestDiscordBot_Start_DeliversMessages tests that inbound messages reach the
// registered handler
func TestDiscordBot_Start_DeliversMessages(t *testing.T) {
	mockSession := &MockDiscordSession{}

	bot := NewDiscordBot("test-token", "123456789")
	bot.session = mockSession

	var receivedMsg BotMessage
	handlerCalled := false
	err := bot.Start(func(msg BotMessage) {
		handlerCalled = true
		receivedMsg = msg
	})
	require.NoError(t, err)
	assert.True(t, mockSession.openCalled)
	require.NotNil(t, mockSession.handler)

	mockSession.SimulateMessage(&discordgo.Session{}, &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   "/摇骰子",
			ChannelID: "123456789",
			Author: &discordgo.User{
				ID:       "user-123",
				Bot:      false,
				Username: "testuser",
			},
		},
	})

	assert.True(t, handlerCalled)
	assert.Equal(t, "discord", receivedMsg.Platform)
	assert.Equal(t, "user-123", receivedMsg.UserID)
	assert.Equal(t, "123456789", receivedMsg.Channel)
	assert.Equal(t, "/摇骰子", receivedMsg.Content)

	bot.Stop()
}

// TestDiscordBot_Start_IgnoresBotMessages tests that messages authored by
// bots are dropped
func TestDiscordBot_Start_IgnoresBotMessages(t *testing.T) {
	mockSession := &MockDiscordSession{}

	bot := NewDiscordBot("test-token", "123456789")
	bot.session = mockSession

	handlerCalled := false
	require.NoError(t, bot.Start(func(msg BotMessage) {
		handlerCalled = true
	}))

	mockSession.SimulateMessage(&discordgo.Session{}, &discordgo.MessageCreate{
		Message: &discordgo.Message{
			Content:   "bot message",
			ChannelID: "123456789",
			Author: &discordgo.User{
				ID:  "bot-123",
				Bot: true,
			},
		},
	})

	assert.False(t, handlerCalled)
	bot.Stop()
}

// TestDiscordBot_Start_OpenFailure tests that connection failures surface
func TestDiscordBot_Start_OpenFailure(t *testing.T) {
	mockSession := &MockDiscordSession{shouldFailOnOpen: true}

	bot := NewDiscordBot("test-token", "123456789")
	bot.session = mockSession

	err := bot.Start(func(msg BotMessage) {})
	assert.Error(t, err)
	assert.True(t, mockSession.openCalled)
}

// TestDiscordBot_SendMessage tests message delivery and channel fallback
func TestDiscordBot_SendMessage(t *testing.T) {
	t.Run("explicit channel", func(t *testing.T) {
		mockSession := &MockDiscordSession{}
		bot := NewDiscordBot("test-token", "default-channel")
		bot.session = mockSession

		require.NoError(t, bot.SendMessage("group-1", "你好"))
		require.Len(t, mockSession.sentMessages, 1)
		assert.Equal(t, "group-1", mockSession.sentMessages[0].Channel)
		assert.Equal(t, "你好", mockSession.sentMessages[0].Message)
	})

	t.Run("falls back to configured channel", func(t *testing.T) {
		mockSession := &MockDiscordSession{}
		bot := NewDiscordBot("test-token", "default-channel")
		bot.session = mockSession

		require.NoError(t, bot.SendMessage("", "hello"))
		require.Len(t, mockSession.sentMessages, 1)
		assert.Equal(t, "default-channel", mockSession.sentMessages[0].Channel)
	})

	t.Run("truncates over limit keeping the tail", func(t *testing.T) {
		mockSession := &MockDiscordSession{}
		bot := NewDiscordBot("test-token", "default-channel")
		bot.session = mockSession

		long := strings.Repeat("a", 2500) + "END"
		require.NoError(t, bot.SendMessage("group-1", long))
		require.Len(t, mockSession.sentMessages, 1)
		sent := mockSession.sentMessages[0].Message
		assert.Len(t, sent, 2000)
		assert.True(t, strings.HasPrefix(sent, "..."))
		assert.True(t, strings.HasSuffix(sent, "END"))
	})

	t.Run("send failure returns error", func(t *testing.T) {
		mockSession := &MockDiscordSession{shouldFailOnSend: true}
		bot := NewDiscordBot("test-token", "default-channel")
		bot.session = mockSession

		assert.Error(t, bot.SendMessage("group-1", "hello"))
	})

	t.Run("uninitialized session errors", func(t *testing.T) {
		bot := NewDiscordBot("test-token", "default-channel")
		err := bot.SendMessage("group-1", "hello")
		assert.ErrorContains(t, err, "not initialized")
	})
}

// TestDiscordBot_SendImage tests image delivery as an embed
func TestDiscordBot_SendImage(t *testing.T) {
	mockSession := &MockDiscordSession{}
	bot := NewDiscordBot("test-token", "default-channel")
	bot.session = mockSession

	require.NoError(t, bot.SendImage("group-1", "https://example.com/a.jpg"))
	require.Len(t, mockSession.sentEmbeds, 1)
	assert.Equal(t, "group-1", mockSession.sentEmbeds[0].Channel)
	require.NotNil(t, mockSession.sentEmbeds[0].Embed.Image)
	assert.Equal(t, "https://example.com/a.jpg", mockSession.sentEmbeds[0].Embed.Image.URL)

	t.Run("uninitialized session errors", func(t *testing.T) {
		bot := NewDiscordBot("test-token", "default-channel")
		assert.Error(t, bot.SendImage("group-1", "https://example.com/a.jpg"))
	})
}

// TestDiscordBot_Stop tests connection cleanup
func TestDiscordBot_Stop(t *testing.T) {
	t.Run("closes session", func(t *testing.T) {
		mockSession := &MockDiscordSession{}
		bot := NewDiscordBot("test-token", "123456789")
		bot.session = mockSession

		require.NoError(t, bot.Stop())
		assert.True(t, mockSession.closed)
		assert.Nil(t, bot.session)
	})

	t.Run("nil session is a no-op", func(t *testing.T) {
		bot := NewDiscordBot("test-token", "123456789")
		assert.NoError(t, bot.Stop())
	})
}

// TestDiscordBot_NewDiscordBot tests the constructor
func TestDiscordBot_NewDiscordBot(t *testing.T) {
	bot := NewDiscordBot("test-token", "test-channel")

	assert.NotNil(t, bot)
	assert.Equal(t, "test-token", bot.token)
	assert.Equal(t, "test-channel", bot.channelID)
	assert.Nil(t, bot.session)
}
