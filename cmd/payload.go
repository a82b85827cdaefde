package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// sampleConversation is used when no transcript is given.
const sampleConversation = "社長：火事が一番怖いね。\n社長：俺が倒れたらこの店は終わりだよ。"

var payloadCmd = &cobra.Command{
	Use:   "payload [flags] [transcript]",
	Short: "Write a request body for POST /analyze",
	Long: `Write a JSON request body for POST /analyze to a file. The conversation
is taken from the transcript argument, or a short sample when omitted.
Non-ASCII text is written as-is (UTF-8) so the file stays readable.

Examples:
  jigyokei payload
  jigyokei payload visit.txt -o body.json
  curl -X POST -H 'Content-Type: application/json' -d @payload.json localhost:8000/analyze`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPayload,
}

func init() {
	payloadCmd.Flags().StringP("output", "o", "payload.json", "file to write")

	rootCmd.AddCommand(payloadCmd)
}

type payload struct {
	ConversationLog string `json:"conversation_log"`
}

func runPayload(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("output")

	body := payload{ConversationLog: sampleConversation}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		body.ConversationLog = string(data)
	}

	data, err := encodePayload(body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ ファイル '%s' を、正しい形式で作成（上書き）しました。\n", path)
	return nil
}

// encodePayload renders body with four-space indentation and without
// escaping non-ASCII or HTML characters.
func encodePayload(body payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
