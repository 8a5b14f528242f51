// Package parser turns fetched markup into outbound links and word counts.
//
// Both jobs sit behind small interfaces, LinkExtractor and Tokenizer. The
// default implementations scan with regular expressions rather than
// building a DOM: malformed or nested markup may be missed. DOMExtractor is
// a goquery-based LinkExtractor that can be swapped in through
// configuration.
package parser
