package config

const SERVER_YML = `
agenda:
  cron:
    timeZone: "America/Sao_Paulo"
  listener:
    port: 3000

sqlite:
  passPhrase: passphrase

weather:
  baseUrl: "https://api.hgbrasil.com/weather"
  key:

google:
  storage:
    bucket: "agenda"
    prefix: "agenda-dev"
    sqliteBackupSchedule: "*/30 * * * *"
    enableSqliteBackupAndSync: false
  applicationCredentials:
`
