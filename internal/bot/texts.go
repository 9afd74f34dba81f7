package bot

// Canned replies. The place prompts deliberately stay short: they are
// shown on user mistakes and must read well on a phone.
const (
	helpText = `*********** The Twister Bot ***********
Usage:
* /help: Show this message.
* /start: Learn about this bot.
* /place <city>: Current weather in that city.
* Send a location: current weather there.
***************************************`

	startText = `*********** The Twister Bot ***********
Ask it for the current weather in cities
around the world and it replies with a
rendered report card.
This bot may track your username, location
and language for usage statistics.
***************************************`

	placeNotFoundText = "Place not found, please try again."
	apologyText       = "Sorry, we are currently unable to process your request. We apologize for any inconvenience this may have caused."
)
