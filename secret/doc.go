// Package secret resolves credential values in check configuration.
//
// Credential fields (passwords, tokens) may hold:
//   - A literal value
//   - Environment references: ${JIRA_TOKEN}, strictly expanded (see ExpandEnvStrict)
//   - Secret references: secretref:<provider>:<ref>
//
// Two providers are built in:
//   - env:  secretref:env:SNOWFLAKE_PASSWORD reads an environment variable
//   - file: secretref:file:/run/secrets/jira reads a file, trailing newline trimmed
//
// References may also appear inline, e.g. "Bearer secretref:env:TOKEN".
// Values are resolved when a check is dispatched, so rotated secrets are
// picked up by the next run without reloading configuration.
package secret
