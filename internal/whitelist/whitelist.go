package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender's domain is trusted enough to skip scoring
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a checker for the given domains. Subdomains of a listed
// domain are trusted too.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	set := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			set[domain] = struct{}{}
		}
	}

	if len(set) > 0 && logger != nil {
		logger.Info("Initialized sender allow-list", zap.Int("domains", len(set)))
	}

	return &Checker{
		domains: set,
		logger:  logger,
	}
}

// Empty reports whether no domain is configured
func (c *Checker) Empty() bool {
	return c == nil || len(c.domains) == 0
}

// IsWhitelisted checks a From value such as "Alice <alice@example.com>"
func (c *Checker) IsWhitelisted(from string) bool {
	if c.Empty() || from == "" {
		return false
	}

	domain := senderDomain(from)
	if domain == "" {
		return false
	}

	for candidate := domain; candidate != ""; {
		if _, ok := c.domains[candidate]; ok {
			if c.logger != nil {
				c.logger.Debug("Sender domain is whitelisted",
					zap.String("domain", domain),
					zap.String("matched", candidate))
			}
			return true
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}
	return false
}

func senderDomain(from string) string {
	address := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		address = parsed.Address
	}
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimRight(address[at+1:], ">"))
}
