package extract

import "strings"

// ChunkLines joins transcript lines into newline-separated chunks of at most
// limit characters. A single oversized line becomes its own chunk rather than
// being split mid-utterance.
func ChunkLines(lines []string, limit int) []string {
	if limit <= 0 {
		return []string{strings.Join(lines, "\n")}
	}
	var chunks []string
	var current strings.Builder
	for _, line := range lines {
		if current.Len() > 0 && current.Len()+len(line)+1 > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
