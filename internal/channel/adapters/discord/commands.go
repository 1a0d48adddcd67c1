package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/memohai/albumbot/internal/channel"
	"github.com/memohai/albumbot/internal/commands"
)

// ApplicationCommands returns the slash commands registered for the bot.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commands.CommandAddImage,
			Description: "Add an image or video to an Imgur album owned by the bot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        commands.OptionAlbumURL,
					Description: "Album link, e.g. https://imgur.com/a/AbC12",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        commands.OptionImage,
					Description: "Image or video to add",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        commands.OptionDescription,
					Description: "Description shown under the image",
					Required:    true,
				},
			},
		},
		{
			Name:        commands.CommandClone,
			Description: "Copy every image of an Imgur album into a new album",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        commands.OptionAlbumURL,
					Description: "Album to copy",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        commands.OptionNewAlbumTitle,
					Description: "Title of the new album",
					Required:    true,
				},
			},
		},
	}
}

// toCommand converts an application command interaction. ok is false for other
// interaction types.
func toCommand(i *discordgo.Interaction) (channel.Command, bool) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return channel.Command{}, false
	}
	data := i.ApplicationCommandData()
	cmd := channel.Command{
		Name:        data.Name,
		ChannelID:   i.ChannelID,
		GuildID:     i.GuildID,
		Sender:      interactionSender(i),
		Options:     map[string]string{},
		Attachments: map[string]channel.Attachment{},
	}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			cmd.Options[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := opt.Value.(string)
			if data.Resolved == nil {
				continue
			}
			if att, ok := data.Resolved.Attachments[id]; ok && att != nil {
				cmd.Attachments[opt.Name] = toAttachment(att)
			}
		}
	}
	return cmd, true
}

func interactionSender(i *discordgo.Interaction) channel.Identity {
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	return toIdentity(user)
}

func toIdentity(u *discordgo.User) channel.Identity {
	if u == nil {
		return channel.Identity{}
	}
	return channel.Identity{ID: u.ID, DisplayName: u.Username, IsBot: u.Bot}
}

func toAttachment(att *discordgo.MessageAttachment) channel.Attachment {
	return channel.Attachment{
		URL:         att.URL,
		Name:        att.Filename,
		ContentType: att.ContentType,
		Size:        int64(att.Size),
	}
}

// toInboundMessage converts a gateway message.
func toInboundMessage(m *discordgo.Message) channel.InboundMessage {
	msg := channel.InboundMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		Sender:     toIdentity(m.Author),
		Text:       m.Content,
		ReceivedAt: m.Timestamp,
	}
	for _, att := range m.Attachments {
		if att != nil {
			msg.Attachments = append(msg.Attachments, toAttachment(att))
		}
	}
	return msg
}
