// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mailserver implements the mail_server check for SMTP, IMAP and
// POP3 servers.
//
// For SMTP the hostname is treated as a mail domain unless resolve_mx is
// false: the most preferred MX host is probed, and a domain without usable
// MX records is probed directly. IP literals and single-label names such
// as "mailhost" are dialed as given. The dialogue then covers the greeting,
// EHLO, STARTTLS (use_tls), AUTH and an optional end-to-end test message.
// IMAP (through go-imap's imapclient) and POP3 read the capabilities,
// optionally upgrade with STARTTLS or STLS, log in and report the INBOX
// message count.
//
// Default ports:
//
//	smtp  25, 465 with use_ssl, 587 with use_tls
//	imap  143, 993 with use_ssl
//	pop3  110, 995 with use_ssl
//
// A requested capability the server does not advertise is an error; the
// probe never downgrades silently.
package mailserver
