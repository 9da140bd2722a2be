package util

import (
    "net"
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// SplitList splits a comma separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// SplitHostPort splits "host:port", falling back to defPort when the port is absent or invalid.
func SplitHostPort(addr string, defPort int) (string, int) {
    host, port, err := net.SplitHostPort(addr)
    if err != nil {
        return addr, defPort
    }
    return host, ParseIntDefault(port, defPort)
}
