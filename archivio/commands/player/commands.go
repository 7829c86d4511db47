package player

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Challenge,
	Challenges,
	Aid,
	Aids,
	Background,
	Resources,
	Purchase,
	Status,
	Oracle,
	History,
}
