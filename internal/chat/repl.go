package chat

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// REPL greetings and prompts
const (
	welcomeMessage = "Welcome to the Receipt Chatbot!\nYou can ask questions about the receipt details.\nType 'exit' to quit.\n"
	queryPrompt    = "\nEnter your query: "
	goodbyeMessage = "Thank you for using the Receipt Chatbot!\n"
)

// RunREPL answers questions read line by line from in until "exit" or end
// of input
func RunREPL(in io.Reader, out io.Writer, service *Service, sessionID string) error {
	if _, err := io.WriteString(out, welcomeMessage); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := io.WriteString(out, queryPrompt); err != nil {
			return err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading query: %w", err)
			}
			_, err := io.WriteString(out, "\n"+goodbyeMessage)
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			_, err := io.WriteString(out, goodbyeMessage)
			return err
		}

		answer, err := service.Ask(sessionID, line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, answer); err != nil {
			return err
		}
	}
}
