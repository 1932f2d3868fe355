package source

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/net/html"

	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/utils"
)

var headerDecoder = new(mime.WordDecoder)

// ParseMessage reads an RFC 5322 message and extracts the text the classifier
// scores. Plain-text parts are preferred; HTML parts are reduced to their
// visible text when no plain part exists.
func ParseMessage(r io.Reader) (core.Message, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return core.Message{}, fmt.Errorf("failed to parse message: %w", err)
	}

	body, err := extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return core.Message{}, err
	}

	return core.Message{
		From:    decodeHeader(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    utils.SanitizeUTF8(body),
	}, nil
}

func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

type textParts struct {
	plain bytes.Buffer
	html  bytes.Buffer
}

func (p *textParts) String() string {
	if p.plain.Len() > 0 {
		return strings.TrimSpace(p.plain.String())
	}
	return strings.TrimSpace(p.html.String())
}

func extractText(contentType, encoding string, body io.Reader) (string, error) {
	var parts textParts
	if err := collectParts(&parts, contentType, encoding, body); err != nil {
		return "", err
	}
	return parts.String(), nil
}

func collectParts(parts *textParts, contentType, encoding string, body io.Reader) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Missing or broken Content-Type is treated as text/plain
		mediaType = "text/plain"
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return readInto(&parts.plain, body, encoding)
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// Keep whatever was read before the broken part
				if parts.plain.Len() > 0 || parts.html.Len() > 0 {
					return nil
				}
				return fmt.Errorf("failed to read multipart body: %w", err)
			}
			if isAttachment(part) {
				continue
			}
			if err := collectParts(parts, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part); err != nil {
				return err
			}
		}

	case mediaType == "text/html":
		var raw bytes.Buffer
		if err := readInto(&raw, body, encoding); err != nil {
			return err
		}
		text, err := htmlText(raw.String())
		if err != nil {
			return err
		}
		parts.html.WriteString(text)
		parts.html.WriteString("\n")
		return nil

	case strings.HasPrefix(mediaType, "text/"):
		if err := readInto(&parts.plain, body, encoding); err != nil {
			return err
		}
		parts.plain.WriteString("\n")
		return nil

	default:
		return nil
	}
}

func isAttachment(part *multipart.Part) bool {
	disposition, _, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// readInto copies body into buf, undoing the transfer encoding. Multipart
// parts arrive with quoted-printable already decoded.
func readInto(buf *bytes.Buffer, body io.Reader, encoding string) error {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	if _, err := io.Copy(buf, body); err != nil {
		return fmt.Errorf("failed to read message body: %w", err)
	}
	return nil
}

// htmlText returns the visible text of an HTML document
func htmlText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML part: %w", err)
	}

	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(words, " "), nil
}
