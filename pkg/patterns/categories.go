package patterns

// Pattern definitions grouped by category. Each register function is
// called once from newRegistry. Severities follow a rough scale:
// 90+ = reject outright, 70-89 = escalate, 40-69 = constrain.

func (r *Registry) registerDestructiveFSPatterns() {
	cat := CategoryDestructiveFS

	r.register("rm_rf", `(?i)\brm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)\b`, cat, 95, "Recursive force delete")
	r.register("rm_rf_root", `(?i)\brm\s+-\w*\s+/(\s|$|\w)`, cat, 95, "Delete from filesystem root")
	r.register("del_force", `(?i)\bdel\s+/[fsq]\b`, cat, 90, "Windows force delete")
	r.register("format_drive", `(?i)\bformat\s+[a-z]:`, cat, 95, "Drive format command")
	r.register("mkfs", `(?i)\bmkfs(\.\w+)?\s`, cat, 95, "Filesystem creation over existing data")
	r.register("dd_disk", `(?i)\bdd\s+.*of=/dev/(sd|hd|nvme)`, cat, 95, "Raw disk overwrite")
	r.register("shred", `(?i)\bshred\s+`, cat, 90, "Secure file destruction")
	r.register("vssadmin_delete", `(?i)vssadmin\s+delete\s+shadows`, cat, 95, "Shadow copy deletion (ransomware staple)")
	r.register("wevtutil_clear", `(?i)wevtutil\s+cl\b`, cat, 85, "Event log clearing")
	r.register("truncate_table", `(?i)\b(truncate|drop)\s+(table|database)\b`, cat, 90, "Database truncate/drop")
	r.register("remove_item_recurse", `(?i)remove-item\s+.*-recurse.*-force`, cat, 90, "PowerShell recursive delete")
}

func (r *Registry) registerCredentialExposurePatterns() {
	cat := CategoryCredentialExposure

	r.register("print_password", `(?i)(print|display|show|echo|cat|dump|output)\s+.{0,30}(password|passphrase|credential)`, cat, 85, "Credential display request")
	r.register("plaintext_secret", `(?i)(password|secret|api[_-]?key|token)\s*[:=]\s*\S+`, cat, 80, "Inline plaintext secret")
	r.register("private_key_block", `-----BEGIN [A-Z ]*PRIVATE KEY-----`, cat, 90, "Private key material")
	r.register("shadow_file", `(?i)/etc/(shadow|passwd|sudoers)\b`, cat, 85, "System credential file access")
	r.register("sam_dump", `(?i)\breg\s+save\s+hklm\\(sam|security|system)`, cat, 90, "SAM/SECURITY hive export")
	r.register("browser_creds", `(?i)(chrome|firefox|edge)\s+.{0,30}(saved\s+)?passwords`, cat, 75, "Browser credential harvest")
}

func (r *Registry) registerNetworkAttackPatterns() {
	cat := CategoryNetworkAttack

	r.register("metasploit", `(?i)\b(msfconsole|msfvenom|meterpreter)\b`, cat, 90, "Metasploit tooling")
	r.register("mimikatz", `(?i)\bmimikatz\b|sekurlsa::`, cat, 95, "Credential dumping tooling")
	r.register("hydra_brute", `(?i)\b(hydra|medusa|ncrack)\s+-`, cat, 85, "Password brute-force tooling")
	r.register("masscan", `(?i)\b(masscan|zmap)\b`, cat, 75, "Internet-scale scanner")
	r.register("nmap_aggressive", `(?i)\bnmap\s+.*(-sS|-A\b|--script\s+vuln)`, cat, 70, "Aggressive network scan")
	r.register("responder", `(?i)\bresponder(\.py)?\s+-I\b`, cat, 85, "LLMNR/NBNS poisoning tool")
	r.register("reverse_shell", `(?i)(nc|ncat|bash)\s+.{0,30}(-e\s+/bin/(ba)?sh|/dev/tcp/)`, cat, 95, "Reverse shell one-liner")
	r.register("psexec_lateral", `(?i)\bpsexec(\.exe)?\s+\\\\`, cat, 75, "Remote execution against another host")
}

func (r *Registry) registerExfiltrationPatterns() {
	cat := CategoryExfiltration

	r.register("exfil_verb", `(?i)\bexfiltrat(e|ion)\b`, cat, 80, "Explicit exfiltration language")
	r.register("upload_external", `(?i)(upload|send|post|transfer)\s+.{0,40}(external|remote\s+server|attacker|pastebin|file\.io)`, cat, 85, "Upload to external destination")
	r.register("curl_post_data", `(?i)curl\s+.*(-d|--data|-T|--upload-file)\s+.*https?://`, cat, 75, "Data push over HTTP")
	r.register("dns_tunnel", `(?i)(dns\s+tunnel|dnscat|iodine\b)`, cat, 85, "DNS tunneling")
	r.register("archive_then_send", `(?i)(zip|tar|7z|rar)\s+.{0,40}(then|and)\s+(upload|send|mail)`, cat, 80, "Stage-and-ship archive")
}

func (r *Registry) registerPersistencePatterns() {
	cat := CategoryPersistence

	r.register("backdoor", `(?i)\bbackdoor\b`, cat, 90, "Backdoor language")
	r.register("registry_run_key", `(?i)(currentversion\\run|reg\s+add\s+.{0,60}\\run)`, cat, 85, "Registry run-key persistence")
	r.register("schtasks_create", `(?i)schtasks\s+/create`, cat, 75, "Scheduled task creation")
	r.register("cron_persist", `(?i)(crontab\s+-e|echo\s+.{0,40}>>\s*/etc/cron)`, cat, 75, "Cron persistence")
	r.register("new_admin_user", `(?i)(net\s+user\s+\S+\s+\S+\s+/add|useradd\s+.{0,30}(sudo|wheel|admin))`, cat, 85, "Rogue privileged account")
	r.register("sticky_keys", `(?i)sethc\.exe.{0,40}cmd\.exe`, cat, 90, "Sticky-keys backdoor")
	r.register("ssh_authorized_keys", `(?i)(>>|tee\s+-a)\s*.{0,20}authorized_keys`, cat, 80, "SSH key implant")
}

func (r *Registry) registerIrreversiblePatterns() {
	cat := CategoryIrreversible

	r.register("reinstall", `(?i)\breinstall(ing)?\b`, cat, 60, "OS/application reinstall")
	r.register("rebuild", `(?i)\brebuild(ing)?\s+(the\s+)?(host|server|machine|system|box)`, cat, 60, "Host rebuild")
	r.register("reimage", `(?i)\bre-?imag(e|ing)\b`, cat, 60, "Host reimage")
	r.register("factory_reset", `(?i)\bfactory[\s-]?reset\b`, cat, 65, "Factory reset")
	r.register("wipe", `(?i)\bwip(e|ing)\s+(the\s+)?(disk|drive|host|system|machine)`, cat, 65, "Disk wipe")
}

func (r *Registry) registerNetworkWidePatterns() {
	cat := CategoryNetworkWide

	r.register("all_hosts", `(?i)\b(all|every)\s+(host|server|machine|endpoint|workstation)s?\b`, cat, 55, "Fleet-wide action phrasing")
	r.register("entire_network", `(?i)\b(entire|whole)\s+(network|domain|fleet|environment)\b`, cat, 60, "Network-wide action phrasing")
	r.register("network_wide", `(?i)\bnetwork[\s-]wide\b`, cat, 60, "Explicit network-wide scope")
	r.register("shutdown_everything", `(?i)(shut\s*down|disconnect|isolate)\s+.{0,20}(everything|all\s+systems)`, cat, 65, "Mass shutdown/isolation")
}

func (r *Registry) registerSecretTokenPatterns() {
	cat := CategorySecretToken

	r.register("aws_key", `AKIA[0-9A-Z]{16}`, cat, 85, "AWS access key in response body")
	r.register("bearer_token", `(?i)bearer\s+[a-z0-9\-_.~+/]{20,}`, cat, 75, "Bearer token in response body")
	r.register("generic_password_field", `(?i)\b(password|passwd|pwd)\b\s*[:=]`, cat, 60, "Password field in response body")
	r.register("jwt", `eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`, cat, 70, "JWT in response body")
	r.register("conn_string", `(?i)(postgresql|mysql|mongodb|redis|amqp)://[^\s"']+:[^\s"']+@`, cat, 80, "Connection string with credentials")
}

func (r *Registry) registerOffensiveAskPatterns() {
	cat := CategoryOffensiveAsk

	r.register("write_malware", `(?i)(write|create|build|generate)\s+.{0,20}(malware|ransomware|virus|worm|rootkit)`, cat, 95, "Malware authoring request")
	r.register("help_me_hack", `(?i)(help|show)\s+me\s+.{0,20}(hack|attack|breach|compromise)\b`, cat, 90, "Offensive assistance request")
	r.register("bypass_security", `(?i)\bbypass\s+.{0,20}(edr|antivirus|av\b|firewall|detection|mfa|2fa)`, cat, 90, "Defense bypass request")
	r.register("exploit_dev", `(?i)(develop|write|craft)\s+.{0,20}(exploit|payload|shellcode)`, cat, 90, "Exploit development request")
	r.register("crack_password", `(?i)\bcrack\s+.{0,20}(password|hash|wifi|wpa)`, cat, 85, "Password cracking request")
}

func (r *Registry) registerCriticalHostPatterns() {
	cat := CategoryCriticalHost

	r.register("domain_controller", `(?i)(^|[^a-z])(dc|dc\d+|ad)[-_]|domain[\s-]?controller`, cat, 70, "Domain controller naming")
	r.register("critical_prefix", `(?i)\b(prod|prd|core|crit)[-_](db|sql|dc|srv|app)`, cat, 65, "Critical production server naming")
	r.register("infra_role", `(?i)(exchange|vcenter|esxi|backup|pki|ca)[-_]?(srv|server|\d+)`, cat, 65, "Key infrastructure server naming")
	r.register("sql_primary", `(?i)(sql|db|database)[-_]?(primary|master|prod|01)\b`, cat, 65, "Primary database server naming")
}
