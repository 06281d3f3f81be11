// Package sitelib registers every built-in site with engine.Sites.
package sitelib

import (
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/sitelib/alibaba"
	"github.com/dreamerjackson/shopcrawler/sitelib/amazon"
	"github.com/dreamerjackson/shopcrawler/sitelib/dhgate"
	"github.com/dreamerjackson/shopcrawler/sitelib/ebay"
	"github.com/dreamerjackson/shopcrawler/sitelib/flipkart"
	"github.com/dreamerjackson/shopcrawler/sitelib/indiamart"
	"github.com/dreamerjackson/shopcrawler/sitelib/madeinchina"
)

func init() {
	engine.Sites.Add(amazon.Site)
	engine.Sites.Add(flipkart.Site)
	engine.Sites.Add(madeinchina.Site)
	engine.Sites.Add(alibaba.Site)
	engine.Sites.Add(dhgate.Site)
	engine.Sites.Add(ebay.Site)
	engine.Sites.Add(indiamart.Site)
}
