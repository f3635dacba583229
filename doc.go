/*
Command addrlist parses, normalizes and formats email address lists, as found
in the From, To, Cc and Bcc headers of email messages.

Address lists are split into addresses and groups, honoring quoted strings,
escapes, comments and RFC 2047 encoded-words. They can be printed in canonical
form, reduced to bare addresses, or turned into folded message headers. The
same operations are available as JSON API over HTTP with "addrlist serve".

# Commands

	addrlist [-config addrlist.conf] [-loglevel level] ...
	addrlist split [-delimiters chars] list
	addrlist parse [flags] list
	addrlist format [flags] list
	addrlist bare [-defaulthost host] [-multiple] list
	addrlist encode [-personal] text
	addrlist write mailbox host [personal]
	addrlist writegroup name [address ...]
	addrlist trim address
	addrlist header [-smtputf8] [flags] name list
	addrlist recipients [-smtputf8] [-defaulthost host] [-remove list] list ...
	addrlist serve
	addrlist config test [file]
	addrlist config describe >addrlist.conf
	addrlist version
	addrlist help [command ...]

Use "addrlist help command" for details about a command, and "addrlist helpall"
for details about all commands.

# Examples

	$ addrlist format '"Doe, John" <john@example.com>, me@example.com (me)'
	"Doe, John" <john@example.com>, me@example.com

	$ addrlist bare -multiple 'A <a@example.com>, team: b@example.org;'
	a@example.com
	b@example.org

	$ addrlist header To '=?utf-8?q?J=C3=B6rg?= <j@example.com>'
	To: =?utf-8?q?J=C3=B6rg?= <j@example.com>
*/
package main
