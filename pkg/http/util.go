package http

import xutil "TradeDesk/pkg/util"

// ParseBoolDefault parses a query flag or returns default if empty/invalid.
func ParseBoolDefault(s string, def bool) bool { return xutil.ParseBoolDefault(s, def) }
