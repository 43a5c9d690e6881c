package mcpserver

// IdentityContract describes how vault item ids work. LLM consumers should
// read it before doing structural operations.
const IdentityContract = `# Eihwaz Vault Identity Contract

Every item in the vault is identified by its path, not by an opaque key.

## Ids

` + "```" + `
note id   = vault-relative path without the .md extension   (topics/go/channels)
folder id = vault-relative path                              (topics/go)
root      = ""                                               (empty string)
` + "```" + `

- Forward slashes only, no leading or trailing slash.
- A note file ` + "`" + `topics/go/channels.md` + "`" + ` has id ` + "`" + `topics/go/channels` + "`" + `.

## Consequences

1. **Ids change on rename and move.** Renaming folder ` + "`" + `a` + "`" + ` to ` + "`" + `z` + "`" + ` changes the
   id of every descendant: ` + "`" + `a/b/note1` + "`" + ` becomes ` + "`" + `z/b/note1` + "`" + `. Any id you
   cached before a structural operation is stale afterwards; re-fetch the
   tree with ` + "`" + `get_tree` + "`" + ` instead of reusing old ids.
2. **Workspace state follows automatically.** Open tabs, pinned tabs,
   expanded folders and the active item are rewritten in the same operation
   that renames or moves an item. You never need to fix them up.
3. **Titles and ids differ.** The id is derived from the sanitized title
   (filesystem-unsafe characters stripped), but the display title lives in
   the note's frontmatter and may contain anything.
4. **Conflicts are not resolved for you.** Creating, renaming or moving an
   item onto an existing id fails; pick a different title or target.
5. **Folders cannot move into themselves** or into any of their descendants.

## Note format

` + "```" + `markdown
---
title: Human-readable title
created: 2025-01-15
---

Body text in standard Markdown.
` + "```" + `

Frontmatter is optional; when absent, the title falls back to the filename
stem and the created date to the file's modification time.
`
