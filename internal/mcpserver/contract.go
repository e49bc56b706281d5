package mcpserver

// LogFormatURI is the resource URI of LogFormatContract.
const LogFormatURI = "studylog://log-format"

// LogFormatContract describes the on-disk log format that writers (human or
// LLM) should follow when adding a day's record.
const LogFormatContract = `# Study Log Format Contract

One JSON file per calendar day.

## Location

` + "```" + `
content/logs/YYYYMM/YYYY-MM-DD.json
` + "```" + `

The filename stem MUST equal ` + "`" + `date` + "`" + ` and the folder MUST be the
year and month of ` + "`" + `date` + "`" + ` without a separator.

## Structure

` + "```" + `json
{
  "date": "2024-01-12",
  "toshinToday": ["英語", "数学"],
  "details": ["過去問 2 年分", "単語帳 100 語"],
  "plan": "optional free text",
  "notes": "optional free text"
}
` + "```" + `

## Rules

1. **` + "`" + `date` + "`" + ` is required** and must be a real ` + "`" + `YYYY-MM-DD` + "`" + ` date.
2. **` + "`" + `toshinToday` + "`" + `** lists the lesson subjects done that day. Each entry is a
   non-empty string. Duplicates are collapsed when the site is built.
3. **` + "`" + `details` + "`" + `** lists what was done, one entry per item. Newlines inside an
   entry are kept.
4. **Allowed keys** are ` + "`" + `date, plan, notes, toshinKoma, study, toshin, toshinToday, details` + "`" + `.
   Any other key fails validation.
5. **Legacy children** are still accepted:
   - ` + "`" + `study[]` + "`" + ` items need non-empty ` + "`" + `subject` + "`" + `, ` + "`" + `focus` + "`" + `, ` + "`" + `detail` + "`" + ` and optional ` + "`" + `tags` + "`" + ` (list of strings).
   - ` + "`" + `toshin[]` + "`" + ` items need non-empty ` + "`" + `subject` + "`" + `, ` + "`" + `course` + "`" + `, integer ` + "`" + `koma >= 1` + "`" + ` and optional string ` + "`" + `memo` + "`" + `.
   - ` + "`" + `toshinKoma` + "`" + ` is an integer ` + "`" + `>= 0` + "`" + `.
6. **One file per date.** Two files declaring the same date fail validation.

## How older records are read

When ` + "`" + `toshinToday` + "`" + ` is empty the subjects of ` + "`" + `toshin[]` + "`" + ` are used, then
"東進" if ` + "`" + `toshinKoma` + "`" + ` is positive. When ` + "`" + `details` + "`" + ` is empty, ` + "`" + `plan` + "`" + ` and
` + "`" + `notes` + "`" + ` become one entry each.
`
