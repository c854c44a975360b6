package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/basakil/brm-chatbot/internal/chat"
)

type classifyOutput struct {
	Category chat.Category `json:"category"`
	Status   int           `json:"status"`
	Response string        `json:"response"`
}

func (a *app) cmdClassify() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message and print the reply without the simulated delay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatCfg := a.cfg.GetSubConfig("chat")
			svc := chat.NewService(
				chat.NewClassifierFromConfig(chatCfg),
				chat.NewRenderer(
					a.cfg.GetStringWithDefault("app.model-version", "v1"),
					chat.Format(chatCfg.GetStringWithDefault("response-format", "text")),
				),
				nil,
			)

			reply := svc.Classify(args[0])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(classifyOutput{
				Category: reply.Category,
				Status:   reply.Status,
				Response: reply.Text,
			})
		},
	}
}
