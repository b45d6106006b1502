package mcpserver

// VaultFormatContract describes the layout and entry format of a converted
// vault for LLM consumers.
const VaultFormatContract = `# dayvault Vault Format Contract

A converted vault is a plain Obsidian-compatible folder.

## Layout

` + "```" + `
<vault>/
  entries/<YYYY-MM-DD Title>.md    one file per converted journal entry
  attachments/<md5>.<ext>          every photo, video, audio and PDF, flat
` + "```" + `

## Entry files

` + "```" + `markdown
---
uuid: AAAAAAAA1111                  # journal identifier, stable across exports
created: '2024-01-15T10:00:00Z'     # ISO-8601, always single-quoted
modified: '2024-01-15T11:30:00Z'
timezone: Europe/Berlin
tags:
  - road-trip
starred: true
editing_time: 312                   # whole seconds
location:
  place_name: Harbour
  latitude: 53.5
weather:
  conditions: Cloudy
  temperature_c: 4.5
device:
  name: Phone
photos:
  - identifier: AB12
    md5: deadbeef
    type: jpeg
---

# Trip
Body in Markdown. ![[deadbeef.jpeg]]
` + "```" + `

## Rules

1. **Absent data is absent.** A key only appears when the journal recorded a
   meaningful value; there are no null or empty keys.
2. **Key order is fixed:** uuid, created, modified, timezone, tags, starred,
   pinned, all_day, editing_time, location, weather, device, activity, photos.
3. **Tags** are lowercase, whitespace becomes a hyphen, punctuation is removed.
4. **Embeds** use ` + "`" + `![[<md5>.<ext>]]` + "`" + ` and resolve against ` + "`" + `attachments/` + "`" + `.
   Media the export did not include is marked with
   ` + "`" + `<!-- missing photo: IDENTIFIER -->` + "`" + ` (or video, audio, pdf).
5. **File names** start with the creation date in the entry's own offset
   (` + "`" + `undated` + "`" + ` when it has none). A title shared by two entries gets the
   first eight characters of the identifier appended: ` + "`" + `2024-01-15 Trip (AAAAAAAA).md` + "`" + `.
6. **Repeats** of an entry with the same identifier and identical text are
   written once.
`
