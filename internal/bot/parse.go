package bot

import (
	"errors"
	"strings"
)

// splitCommand breaks a message into a command word and its arguments.
// A leading slash and a @botname suffix on the command are stripped, so
// "/add", "add" and "/add@PriceTrackerBot" all dispatch the same way.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd, fields[1:]
}

// parseEntryArgs reads the positional form shared by add, edit and the
// edit flow's replacement message:
//
//	<item> <price> <currency> <store>
//	<item> <price> <store>            (currency defaults to home)
func parseEntryArgs(args []string) (item, price, currency, store string, err error) {
	switch len(args) {
	case 4:
		return args[0], args[1], args[2], args[3], nil
	case 3:
		return args[0], args[1], "", args[2], nil
	default:
		return "", "", "", "", errors.New("I need: item, price, optional currency, store.")
	}
}
