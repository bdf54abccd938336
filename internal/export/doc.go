// Package export converts fetched conversations into file content.
//
// Two formats are supported:
//
//   - JSON: the record exactly as received, pretty-printed
//   - Text: one "<Label>:\n<text>" block per message
//
// Usage:
//
//	conv, _ := api.GetConversation(ctx, orgID, convID)
//	c, _ := export.ConverterFor(export.FormatJSON)
//	content, _ := c.Convert(conv)
//	name := export.Filename(conv.Name, c.FileExtension(), time.Now())
package export
