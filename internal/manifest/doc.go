// Package manifest reads module manifest files.
//
// A manifest is a single literal mapping written in Python literal syntax:
//
//	# comment
//	{
//	    'name': "Sale Margin",
//	    'summary': """Show the margin
//	        on sale orders""",
//	    'depends': ['sale'],
//	    'installable': True,
//	}
//
// Only literals are accepted: strings (every quote style, prefixes and
// implicit concatenation), numbers, True, False, None, lists, tuples, sets
// and dicts. Any other expression is a syntax error.
package manifest
