// Package telegram adapts the Telegram Bot API (long polling) to the
// conversation package: updates become conversation events, and replies,
// menus, documents, and attachment downloads go back through the bot.
package telegram
