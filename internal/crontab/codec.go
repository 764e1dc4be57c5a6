package crontab

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/wasilibs/go-re2"

	"github.com/aatumaykin/cronsync/internal/constants"
)

// lineRegexp splits a crontab line into five schedule fields, the command and
// an optional trailing comment.
var lineRegexp = re2.MustCompile(`^\s*((?:[^#\s]+\s+){5})([^#\n]*?)\s*(?:#\s*([^\n]*)|$)`)

var idRegexp = re2.MustCompile(`^[0-9a-z]+$`)

// Entry is an owned crontab line decoded back into its parts.
type Entry struct {
	ID       string   `json:"id" yaml:"id"`
	Schedule Schedule `json:"schedule" yaml:"schedule"`
	Command  string   `json:"command" yaml:"command"`
	Line     string   `json:"-" yaml:"-"`
}

// Codec encodes jobs into crontab lines tagged with the application marker
// and recognizes those lines again.
type Codec struct {
	marker     string
	invocation string
}

// NewCodec returns a codec for the application identified by tag. invocation
// is the command cron runs, without the trailing "run <id>".
func NewCodec(tag, invocation string) (*Codec, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, configurationErrorf("application tag cannot be empty")
	}
	if strings.ContainsAny(tag, "#\r\n") {
		return nil, configurationErrorf("application tag %q cannot contain '#' or line breaks", tag)
	}

	invocation = strings.TrimSpace(invocation)
	if invocation == "" {
		return nil, configurationErrorf("invocation command cannot be empty")
	}
	if strings.ContainsAny(invocation, "#\r\n") {
		return nil, configurationErrorf("invocation command %q cannot contain '#' or line breaks", invocation)
	}
	if hasBarePercent(invocation) {
		return nil, configurationErrorf("invocation command %q has an unescaped '%%', use BuildInvocation", invocation)
	}

	return &Codec{
		marker:     fmt.Sprintf(constants.MarkerFormat, escapePercent(tag)),
		invocation: invocation,
	}, nil
}

// BuildInvocation returns "cd <workDir> && <argv...>" with every argument
// shell-quoted and '%' escaped for cron.
func BuildInvocation(workDir string, argv ...string) string {
	return escapePercent("cd " + shellquote.Join(workDir) + " && " + shellquote.Join(argv...))
}

// Marker returns the comment that tags lines owned by this application.
func (c *Codec) Marker() string { return c.marker }

// Encode returns the crontab line for job.
func (c *Codec) Encode(job *Job) string {
	return fmt.Sprintf("%s %s %s %s # %s", job.Schedule(), c.invocation, constants.RunSubcommand, job.ID(), c.marker)
}

// Decode parses line and reports whether it is owned by this application.
// Ownership is decided by an exact marker match only. An owned line whose
// command does not end in "run <id>" decodes with an empty ID.
func (c *Codec) Decode(line string) (Entry, bool) {
	m := lineRegexp.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	if strings.TrimSpace(m[3]) != c.marker {
		return Entry{}, false
	}

	f := strings.Fields(m[1])
	entry := Entry{
		Schedule: Schedule{Minute: f[0], Hour: f[1], DayOfMonth: f[2], Month: f[3], DayOfWeek: f[4]},
		Command:  strings.TrimSpace(m[2]),
		Line:     line,
	}
	entry.ID = commandID(entry.Command)

	return entry, true
}

func commandID(command string) string {
	words, err := shellquote.Split(command)
	if err != nil {
		words = strings.Fields(command)
	}
	if len(words) < 2 || words[len(words)-2] != constants.RunSubcommand {
		return ""
	}
	id := words[len(words)-1]
	if !idRegexp.MatchString(id) {
		return ""
	}
	return id
}
