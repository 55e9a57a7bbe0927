package config

// defaultConfigTemplate is written on first run. It must parse to the same
// values as DefaultGlobalConfig.
const defaultConfigTemplate = `# Cosigner global configuration
# Location: ~/.config/cosigner/config.yaml

# Storage configuration
storage:
  # Root of the sealed key store, the temporal allow caches and the
  # paired session registry.
  dir: "~/.local/share/cosigner"

# Team identity
# Leave database empty when this installation is not linked to a team.
# A team whose policy sets a temporary approval duration disables
# "never ask" for every session.
team:
  database: ""
  id: ""

# Policy durations
policy:
  # Duration of "allow all" grants when no team policy overrides it.
  default_temporary_approval: "3h"
  # How long reading team data also allows decrypting the team log.
  readteam_decrypt_log_window: "6h"

# Expired entry sweeper (cosigner serve)
sweep:
  schedule: "@every 1m"

# Logging configuration
log:
  file: "~/.local/state/cosigner/cosigner.log"
  # One of: debug, info, warn, error
  level: "info"
  audit_file: "~/.local/state/cosigner/audit.log"
`
